package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHousekeepingClearsExpiredSessions(t *testing.T) {
	h := newHarness(t)
	id, _ := h.newSubject(t)

	hk := NewHousekeepingService(h.store, slog.New(slog.NewTextHandler(io.Discard, nil)), 0)
	require.Equal(t, time.Hour, hk.Interval)

	// Nothing has expired yet.
	hk.Now = func() time.Time { return h.clk.Now() }
	hk.cleanup()
	require.NotEmpty(t, h.storedHash(t, id))

	var cleared int64
	hk.OnCleanup = func(n int64) { cleared += n }
	hk.Now = func() time.Time { return h.clk.Now().Add(25 * time.Hour) }
	hk.cleanup()
	require.Empty(t, h.storedHash(t, id))
	require.EqualValues(t, 1, cleared)

	s, err := h.store.Subjects().GetSubjectByID(context.Background(), id)
	require.NoError(t, err)
	require.Nil(t, s.RefreshExpiresAt)
}

func TestHousekeepingStartStop(t *testing.T) {
	h := newHarness(t)

	hk := NewHousekeepingService(h.store, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Millisecond)
	hk.Start()
	time.Sleep(5 * time.Millisecond)
	hk.Stop()
}
