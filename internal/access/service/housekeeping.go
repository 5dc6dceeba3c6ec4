package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/tenantgate/internal/access/store"
)

// HousekeepingService periodically deletes expired sessions and session
// verifications. Expiry is already enforced at read time, this only keeps the
// tables from growing without bound.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

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
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the worker in the background. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs one pass. Each deletion is independent, a failure in one does
// not stop the other.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	at := now(s.Now)

	sessions, err := s.Store.Sessions().DeleteExpiredSessions(ctx, at)
	if err != nil {
		s.Logger.Error("failed to delete expired sessions", "error", err)
	}

	verifications, err := s.Store.SessionVerifications().DeleteExpiredVerifications(ctx, at)
	if err != nil {
		s.Logger.Error("failed to delete expired session verifications", "error", err)
	}

	s.Logger.Info("housekeeping cleanup completed",
		"sessions_deleted", sessions,
		"verifications_deleted", verifications,
	)
}
