// Package maintenance runs the background housekeeping loop.
package maintenance

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/org/assetvault/internal/storage"
)

// Sweeper periodically expires stale grants and requests and refreshes
// rotation due dates. Every pass is idempotent.
type Sweeper struct {
	store    storage.Store
	interval time.Duration
	log      zerolog.Logger
}

// NewSweeper creates a Sweeper. Interval defaults to one hour when zero.
func NewSweeper(store storage.Store, interval time.Duration, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{store: store, interval: interval, log: log}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := time.Now().UTC()

	grants, err := s.store.ExpirePermissions(ctx, now)
	if err != nil {
		s.log.Error().Err(err).Msg("expiring grants")
	}
	requests, err := s.store.ExpirePermissionRequests(ctx, now.Add(-30*24*time.Hour))
	if err != nil {
		s.log.Error().Err(err).Msg("expiring permission requests")
	}
	recomputed, err := s.store.RecomputeRotationDueDates(ctx, now)
	if err != nil {
		s.log.Error().Err(err).Msg("recomputing rotation due dates")
	}

	if grants+requests+recomputed > 0 {
		s.log.Info().
			Int64("expired_grants", grants).
			Int64("expired_requests", requests).
			Int64("recomputed_due_dates", recomputed).
			Msg("maintenance sweep")
	}
}
