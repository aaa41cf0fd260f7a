// Package seed writes the configured venue and the first owner account into an empty
// database.
package seed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"bowling-booking-backend/config"
	"bowling-booking-backend/internal/auth"
	"bowling-booking-backend/internal/model"
	"bowling-booking-backend/internal/parse"
	"bowling-booking-backend/internal/store"
)

// Venue inserts lanes and schedules from cfg when no lane exists yet. It reports whether
// anything was written.
func Venue(ctx context.Context, st store.Store, cfg config.VenueConfig, log *zap.Logger) (bool, error) {
	n, err := st.CountLanes(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		log.Debug("venue already seeded", zap.Int64("lanes", n))
		return false, nil
	}
	if len(cfg.Lanes) == 0 && len(cfg.Schedules) == 0 {
		log.Warn("no venue configured; lanes and schedules must be created manually")
		return false, nil
	}

	lanes := make([]model.Lane, len(cfg.Lanes))
	for i, l := range cfg.Lanes {
		lanes[i] = model.Lane{Number: l.Number, Type: model.LaneType(l.Type)}
	}

	type plan struct {
		schedule model.Schedule
		weekdays []int
		slots    []model.PriceSlot
	}
	plans := make([]plan, 0, len(cfg.Schedules))
	for _, s := range cfg.Schedules {
		p := plan{schedule: model.Schedule{Name: s.Name}, weekdays: s.Weekdays}
		for _, sl := range s.Slots {
			start, end, err := parse.ClockRange(sl.Start, sl.End)
			if err != nil {
				return false, fmt.Errorf("schedule %q: %w", s.Name, err)
			}
			p.slots = append(p.slots, model.PriceSlot{StartMinute: start, EndMinute: end, PriceCents: parse.Cents(sl.Price)})
		}
		plans = append(plans, p)
	}

	err = st.Transaction(ctx, func(tx store.Store) error {
		if err := tx.CreateLanes(ctx, lanes); err != nil {
			return err
		}
		for i := range plans {
			p := &plans[i]
			if err := tx.CreateSchedule(ctx, &p.schedule, p.weekdays, p.slots); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("seed venue: %w", err)
	}

	log.Info("venue seeded", zap.Int("lanes", len(lanes)), zap.Int("schedules", len(plans)))
	return true, nil
}

// Owner creates the bootstrap OWNER account unless its email is already registered or
// no email is configured.
func Owner(ctx context.Context, st store.Store, cfg config.OwnerConfig, log *zap.Logger) (bool, error) {
	if cfg.Email == "" {
		return false, nil
	}
	email := auth.NormalizeEmail(cfg.Email)

	_, err := st.UserByEmail(ctx, email)
	if err == nil {
		log.Debug("bootstrap owner already exists", zap.String("email", email))
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, err
	}

	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return false, err
	}
	name := cfg.FullName
	if name == "" {
		name = "Owner"
	}
	owner := &model.User{Email: email, PasswordHash: hash, FullName: name, Role: model.RoleOwner}
	if err := st.CreateUser(ctx, owner); err != nil {
		return false, fmt.Errorf("create bootstrap owner: %w", err)
	}
	log.Info("bootstrap owner created", zap.Int64("user_id", owner.ID))
	return true, nil
}
