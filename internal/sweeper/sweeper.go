// Package sweeper periodically cancels PENDING bookings whose hold has lapsed. Reads never
// depend on it; expired holds are already ignored by occupancy.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bowling-booking-backend/config"
	"bowling-booking-backend/internal/events"
	"bowling-booking-backend/internal/model"
	"bowling-booking-backend/internal/store"
)

// Service runs the sweep loop.
type Service struct {
	cfg    config.SweeperConfig
	store  store.Store
	events events.Publisher
	log    *zap.Logger
	now    func() time.Time
}

// NewService creates a sweeper. A nil clock means time.Now.
func NewService(cfg config.SweeperConfig, st store.Store, pub events.Publisher, log *zap.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	return &Service{cfg: cfg, store: st, events: pub, log: log, now: now}
}

// Run sweeps immediately and then every interval until ctx is cancelled. It returns at
// once when the sweeper is disabled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.log.Info("hold sweeper is disabled")
		return
	}
	s.log.Info("starting hold sweeper", zap.Duration("interval", s.cfg.Interval))

	s.sweepAndLog(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("hold sweeper shutting down")
			return
		case <-timer.C:
			s.sweepAndLog(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

func (s *Service) sweepAndLog(ctx context.Context) {
	n, err := s.SweepOnce(ctx)
	if err != nil {
		s.log.Error("sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("cancelled expired holds", zap.Int("count", n))
	}
}

// SweepOnce cancels every expired hold in one transaction and returns how many it
// cancelled.
func (s *Service) SweepOnce(ctx context.Context) (int, error) {
	now := s.now().UTC().Truncate(time.Microsecond)

	var expired []model.Booking
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		expired, err = tx.ExpireStaleHolds(ctx, now)
		return err
	})
	if err != nil {
		return 0, err
	}

	for i := range expired {
		events.Emit(ctx, s.events, s.log, events.BookingExpired, events.NewBookingEvent(&expired[i], now))
	}
	return len(expired), nil
}
