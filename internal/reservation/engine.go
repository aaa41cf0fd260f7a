// Package reservation turns a slot selection into a PENDING booking that holds its cells
// until it is paid or its hold expires.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"bowling-booking-backend/config"
	"bowling-booking-backend/internal/apperror"
	"bowling-booking-backend/internal/events"
	"bowling-booking-backend/internal/model"
	"bowling-booking-backend/internal/occupancy"
	"bowling-booking-backend/internal/parse"
	"bowling-booking-backend/internal/store"
)

// maxAttempts bounds how often a reservation is tried when a concurrent writer claims
// one of its cells between the occupancy check and the insert.
const maxAttempts = 2

// Catalog is the venue data the engine validates selections against.
type Catalog interface {
	LaneByID(ctx context.Context, id int64) (*model.Lane, error)
	ScheduleForWeekday(ctx context.Context, weekday int) (*model.Schedule, error)
	PriceSlotsByIDs(ctx context.Context, ids []int64) ([]model.PriceSlot, error)
}

// Request is a customer's selection of consecutive slots on one lane and date.
type Request struct {
	BookingDate     string
	LaneID          int64
	SelectedSlotIDs []int64
}

// Engine creates reservations.
type Engine struct {
	store   store.Store
	catalog Catalog
	index   *occupancy.Index
	events  events.Publisher
	log     *zap.Logger
	hold    time.Duration
	now     func() time.Time
}

// NewEngine creates an engine. A nil clock means time.Now.
func NewEngine(st store.Store, cat Catalog, pub events.Publisher, log *zap.Logger, cfg config.BookingConfig, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	hold := cfg.Hold
	if hold <= 0 {
		hold = 10 * time.Minute
	}
	return &Engine{
		store:   st,
		catalog: cat,
		index:   occupancy.NewIndex(st, now),
		events:  pub,
		log:     log,
		hold:    hold,
		now:     now,
	}
}

// CreateReservation validates the selection and stores a PENDING booking for userID with
// one live item per selected slot.
func (e *Engine) CreateReservation(ctx context.Context, userID int64, req Request) (*model.Booking, error) {
	lane, date, slots, err := e.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	var booking *model.Booking
	for attempt := 1; ; attempt++ {
		booking, err = e.reserve(ctx, userID, lane, date, slots)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrCellTaken) {
			return nil, err
		}
		if attempt >= maxAttempts {
			e.log.Info("reservation lost cell race",
				zap.Int64("lane_id", lane.ID), zap.String("booking_date", date), zap.Int("attempts", attempt))
			return nil, ErrSlotUnavailable.Wrap(err)
		}
		e.log.Debug("retrying reservation after concurrent claim",
			zap.Int64("lane_id", lane.ID), zap.String("booking_date", date))
	}

	e.log.Info("reservation created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("user_id", userID),
		zap.Int64("lane_id", lane.ID),
		zap.String("booking_date", date),
		zap.Int("slots", len(slots)),
	)
	events.Emit(ctx, e.events, e.log, events.BookingReserved, events.NewBookingEvent(booking, booking.CreatedAt))
	return booking, nil
}

// validate resolves the request against the catalog. The returned slots are ordered by
// start time.
func (e *Engine) validate(ctx context.Context, req Request) (*model.Lane, string, []model.PriceSlot, error) {
	if len(req.SelectedSlotIDs) == 0 {
		return nil, "", nil, ErrInvalidSlotSelection.WithMessage("At least one slot must be selected")
	}
	seen := make(map[int64]struct{}, len(req.SelectedSlotIDs))
	for _, id := range req.SelectedSlotIDs {
		if _, dup := seen[id]; dup {
			return nil, "", nil, ErrInvalidSlotSelection.WithMessage("Slot %d is selected more than once", id)
		}
		seen[id] = struct{}{}
	}

	day, date, err := parse.Date(req.BookingDate)
	if err != nil {
		return nil, "", nil, apperror.InvalidInput(err.Error())
	}

	lane, err := e.catalog.LaneByID(ctx, req.LaneID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, "", nil, ErrInvalidSlotSelection.WithMessage("Lane %d does not exist", req.LaneID)
	}
	if err != nil {
		return nil, "", nil, fmt.Errorf("load lane %d: %w", req.LaneID, err)
	}

	slots, err := e.catalog.PriceSlotsByIDs(ctx, req.SelectedSlotIDs)
	if err != nil {
		return nil, "", nil, fmt.Errorf("load price slots: %w", err)
	}
	if len(slots) != len(req.SelectedSlotIDs) {
		return nil, "", nil, ErrInvalidSlotSelection.WithMessage("One or more selected slots do not exist")
	}

	schedule, err := e.catalog.ScheduleForWeekday(ctx, parse.Weekday(day))
	if err != nil {
		return nil, "", nil, fmt.Errorf("load schedule for %s: %w", date, err)
	}
	if schedule == nil {
		return nil, "", nil, ErrInvalidSlotSelection.WithMessage("The venue is closed on %s", date)
	}
	for _, s := range slots {
		if s.ScheduleID != schedule.ID {
			return nil, "", nil, ErrInvalidSlotSelection.WithMessage("Slot %d is not offered on %s", s.ID, date)
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].StartMinute < slots[j].StartMinute })
	for i := 1; i < len(slots); i++ {
		if !slots[i-1].Precedes(slots[i]) {
			return nil, "", nil, ErrNonContiguousSelection.WithMessage(
				"Slots %s and %s are not consecutive", slots[i-1].TimeRange(), slots[i].TimeRange())
		}
	}
	return lane, date, slots, nil
}

// reserve runs one attempt: release dead claims, re-check occupancy and insert, all in a
// single transaction.
func (e *Engine) reserve(ctx context.Context, userID int64, lane *model.Lane, date string, slots []model.PriceSlot) (*model.Booking, error) {
	var booking *model.Booking
	err := e.store.Transaction(ctx, func(tx store.Store) error {
		now := e.now().UTC().Truncate(time.Microsecond)

		slotIDs := make([]int64, len(slots))
		for i, s := range slots {
			slotIDs[i] = s.ID
		}
		claim := store.Claim{LaneID: lane.ID, BookingDate: date, SlotIDs: slotIDs}
		if _, err := tx.ReleaseExpiredClaims(ctx, claim, now); err != nil {
			return err
		}

		occupied, err := e.index.Within(tx).OccupiedCells(ctx, date)
		if err != nil {
			return err
		}
		for _, s := range slots {
			if occupied.Contains(lane.ID, s.ID) {
				return ErrSlotUnavailable.WithMessage("Lane %s is already booked at %s on %s", lane.Number, s.TimeRange(), date)
			}
		}

		b := &model.Booking{
			UserID:      userID,
			BookingDate: date,
			Status:      model.BookingPending,
			CreatedAt:   now,
			ExpiresAt:   now.Add(e.hold),
		}
		for _, s := range slots {
			b.TotalCents += s.PriceCents
			b.Items = append(b.Items, model.BookingItem{
				LaneID:      lane.ID,
				PriceSlotID: s.ID,
				BookingDate: date,
				Active:      true,
			})
		}
		if err := tx.CreateBooking(ctx, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}
