package redis

import (
	"context"

	"github.com/aussiebroadwan/tokengate/internal/gate/store"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "tokengate:"

// Store keeps each subject as a hash under {prefix}subject:{id} and indexes
// refresh token expiry in the sorted set {prefix}refresh_expiry.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// NewStore connects using a redis:// or rediss:// URL. An empty prefix
// means DefaultPrefix.
func NewStore(url, prefix string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return NewStoreFromClient(redis.NewClient(opts), prefix), nil
}

// NewStoreFromClient wraps an existing client. The store takes ownership and
// closes it on Close.
func NewStoreFromClient(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Subjects() store.Subjects {
	return &subjectsRepo{client: s.client, prefix: s.prefix}
}

// ApplyMigrations is a no-op; hashes need no schema.
func (s *Store) ApplyMigrations() error { return nil }

func (s *Store) Close() error { return s.client.Close() }

// Ping verifies the server is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
