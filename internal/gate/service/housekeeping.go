package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tokengate/internal/gate/store"
)

// HousekeepingService periodically clears refresh token fingerprints whose
// expiry has passed, so expired sessions do not linger in the store.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	// OnCleanup, if set, receives the number of sessions cleared per run.
	OnCleanup func(cleared int64)

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), s.Interval)
	defer cancel()

	cleared, err := s.Store.Subjects().ClearExpiredRefreshTokens(ctx, s.Now())
	if err != nil {
		s.Logger.Error("failed to clear expired sessions", "error", err)
		return
	}

	if s.OnCleanup != nil {
		s.OnCleanup(cleared)
	}
	s.Logger.Info("housekeeping cleanup completed", "sessions_cleared", cleared)
}
