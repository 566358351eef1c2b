package sqlite_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/gate/domain"
	"github.com/aussiebroadwan/tokengate/internal/gate/store"
	"github.com/aussiebroadwan/tokengate/internal/gate/store/drivers/sqlite"
	"github.com/aussiebroadwan/tokengate/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestSubjects(t *testing.T) {
	ctx := context.Background()
	subjects := newStore(t).Subjects()

	id := idx.New().String()

	t.Run("create and get", func(t *testing.T) {
		require.NoError(t, subjects.CreateSubject(ctx, domain.Subject{ID: id, DisplayName: "alice"}))

		got, err := subjects.GetSubjectByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, id, got.ID)
		require.Equal(t, "alice", got.DisplayName)
		require.Empty(t, got.RefreshTokenHash)
		require.Nil(t, got.RefreshExpiresAt)
		require.False(t, got.CreatedAt.IsZero())
	})

	t.Run("duplicate id", func(t *testing.T) {
		err := subjects.CreateSubject(ctx, domain.Subject{ID: id})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := subjects.GetSubjectByID(ctx, idx.New().String())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("swap from empty", func(t *testing.T) {
		exp := time.Now().Add(time.Hour).Truncate(time.Second)
		require.NoError(t, subjects.SwapRefreshToken(ctx, id, "", "fp-1", &exp))

		got, err := subjects.GetSubjectByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "fp-1", got.RefreshTokenHash)
		require.NotNil(t, got.RefreshExpiresAt)
		require.True(t, exp.Equal(*got.RefreshExpiresAt))
	})

	t.Run("swap with stale prev", func(t *testing.T) {
		exp := time.Now().Add(time.Hour)
		err := subjects.SwapRefreshToken(ctx, id, "fp-0", "fp-2", &exp)
		require.ErrorIs(t, err, store.ErrConflict)

		got, err := subjects.GetSubjectByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "fp-1", got.RefreshTokenHash)
	})

	t.Run("swap on unknown id", func(t *testing.T) {
		err := subjects.SwapRefreshToken(ctx, idx.New().String(), "", "fp", nil)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("swap to empty clears", func(t *testing.T) {
		require.NoError(t, subjects.SwapRefreshToken(ctx, id, "fp-1", "", nil))

		got, err := subjects.GetSubjectByID(ctx, id)
		require.NoError(t, err)
		require.False(t, got.HasSession())
		require.Nil(t, got.RefreshExpiresAt)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, subjects.DeleteSubject(ctx, id))
		require.ErrorIs(t, subjects.DeleteSubject(ctx, id), store.ErrNotFound)
	})
}

func TestSwapRefreshTokenRace(t *testing.T) {
	ctx := context.Background()
	subjects := newStore(t).Subjects()

	id := idx.New().String()
	require.NoError(t, subjects.CreateSubject(ctx, domain.Subject{ID: id, RefreshTokenHash: "fp-original"}))

	const contenders = 8
	var (
		wg   sync.WaitGroup
		errs = make([]error, contenders)
	)
	for i := range contenders {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := idx.New().String()
			errs[i] = subjects.SwapRefreshToken(ctx, id, "fp-original", next, nil)
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		require.ErrorIs(t, err, store.ErrConflict)
	}
	require.Equal(t, 1, won)
}

func TestClearExpiredRefreshTokens(t *testing.T) {
	ctx := context.Background()
	subjects := newStore(t).Subjects()

	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	expired := idx.New().String()
	live := idx.New().String()
	noExpiry := idx.New().String()

	require.NoError(t, subjects.CreateSubject(ctx, domain.Subject{ID: expired, RefreshTokenHash: "a", RefreshExpiresAt: &past}))
	require.NoError(t, subjects.CreateSubject(ctx, domain.Subject{ID: live, RefreshTokenHash: "b", RefreshExpiresAt: &future}))
	require.NoError(t, subjects.CreateSubject(ctx, domain.Subject{ID: noExpiry, RefreshTokenHash: "c"}))

	n, err := subjects.ClearExpiredRefreshTokens(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err := subjects.GetSubjectByID(ctx, expired)
	require.NoError(t, err)
	require.False(t, got.HasSession())

	got, err = subjects.GetSubjectByID(ctx, live)
	require.NoError(t, err)
	require.Equal(t, "b", got.RefreshTokenHash)

	got, err = subjects.GetSubjectByID(ctx, noExpiry)
	require.NoError(t, err)
	require.Equal(t, "c", got.RefreshTokenHash)
}
