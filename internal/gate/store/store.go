package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/gate/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict is returned by a compare-and-swap whose expected value no
	// longer matches what is stored.
	ErrConflict = errors.New("store: conflict")
)

// Store is the root data access interface. Concrete drivers (sqlite, redis,
// postgres) implement this. Sub-repositories are exposed as methods to keep
// concerns tidy and testable.
type Store interface {
	Subjects() Subjects

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backend is still reachable.
	Ping(ctx context.Context) error
}

type Subjects interface {
	// GetSubjectByID returns a subject by id.
	GetSubjectByID(ctx context.Context, id string) (domain.Subject, error)

	// CreateSubject inserts a new subject (id is provided by app via ULID).
	CreateSubject(ctx context.Context, s domain.Subject) error

	// SwapRefreshToken atomically replaces the stored refresh fingerprint with
	// next, but only if the stored value is still prev. An empty prev matches
	// a subject without a session, an empty next clears it. Returns
	// ErrNotFound for an unknown id and ErrConflict if prev is stale.
	SwapRefreshToken(ctx context.Context, id, prev, next string, expiresAt *time.Time) error

	// ClearExpiredRefreshTokens drops fingerprints whose expiry is before now
	// and returns how many subjects were affected.
	ClearExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)

	// DeleteSubject removes a subject.
	DeleteSubject(ctx context.Context, id string) error
}
