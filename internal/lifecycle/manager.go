// Package lifecycle moves bookings from PENDING to PAID and tells the customer.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"bowling-booking-backend/internal/apperror"
	"bowling-booking-backend/internal/events"
	"bowling-booking-backend/internal/model"
	"bowling-booking-backend/internal/notification"
	"bowling-booking-backend/internal/reservation"
	"bowling-booking-backend/internal/store"
)

const (
	CodeBookingNotFound  = "BOOKING_NOT_FOUND"
	CodeBookingCancelled = "BOOKING_CANCELLED"
)

var (
	ErrBookingNotFound  = apperror.New(http.StatusNotFound, CodeBookingNotFound, "Booking not found")
	ErrBookingCancelled = apperror.New(http.StatusConflict, CodeBookingCancelled, "The booking was cancelled")
)

// LaneLookup resolves lanes for the confirmation payload.
type LaneLookup interface {
	LaneByID(ctx context.Context, id int64) (*model.Lane, error)
}

// Notifier queues a confirmation for delivery without blocking.
type Notifier interface {
	Dispatch(c notification.Confirmation) bool
}

// Manager confirms payments.
type Manager struct {
	store    store.Store
	lanes    LaneLookup
	notifier Notifier
	events   events.Publisher
	log      *zap.Logger
	now      func() time.Time
}

// NewManager creates a manager. A nil clock means time.Now.
func NewManager(st store.Store, lanes LaneLookup, notifier Notifier, pub events.Publisher, log *zap.Logger, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{store: st, lanes: lanes, notifier: notifier, events: pub, log: log, now: now}
}

// ConfirmPayment marks the booking PAID. Confirming a paid booking returns it unchanged.
// A PENDING booking whose hold has lapsed is confirmed only if its cells are still free.
// Only the call that performs the transition notifies the customer.
func (m *Manager) ConfirmPayment(ctx context.Context, bookingID int64) (*model.Booking, error) {
	var (
		booking      *model.Booking
		transitioned bool
	)
	err := m.store.Transaction(ctx, func(tx store.Store) error {
		b, err := tx.BookingByID(ctx, bookingID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrBookingNotFound.WithMessage("Booking %d not found", bookingID)
		}
		if err != nil {
			return fmt.Errorf("load booking %d: %w", bookingID, err)
		}

		switch b.Status {
		case model.BookingPaid:
			booking = b
			return nil
		case model.BookingCancelled:
			return ErrBookingCancelled.WithMessage("Booking %d was cancelled after its hold expired", bookingID)
		}

		// The hold may lapse while this runs, so the claims are always re-taken under lock.
		if err := reclaim(ctx, tx, b, m.now().UTC().Truncate(time.Microsecond)); err != nil {
			return err
		}

		ok, err := tx.MarkPaid(ctx, b.ID)
		if err != nil {
			return err
		}
		if !ok {
			// Another caller changed the status first.
			current, err := tx.BookingByID(ctx, bookingID)
			if err != nil {
				return fmt.Errorf("reload booking %d: %w", bookingID, err)
			}
			if current.Status == model.BookingCancelled {
				return ErrBookingCancelled.WithMessage("Booking %d was cancelled after its hold expired", bookingID)
			}
			booking = current
			return nil
		}

		b.Status = model.BookingPaid
		for i := range b.Items {
			b.Items[i].Active = true
		}
		booking = b
		transitioned = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if transitioned {
		m.log.Info("payment confirmed", zap.Int64("booking_id", booking.ID), zap.Int64("user_id", booking.UserID))
		m.notify(ctx, booking)
		events.Emit(ctx, m.events, m.log, events.BookingPaid, events.NewBookingEvent(booking, m.now()))
	}
	return booking, nil
}

// reclaim locks b together with the dead claims on its cells, releases those claims and
// re-activates b's items. A live claim by someone else makes the booking unconfirmable.
func reclaim(ctx context.Context, tx store.Store, b *model.Booking, now time.Time) error {
	slotIDs := make([]int64, len(b.Items))
	for i, it := range b.Items {
		slotIDs[i] = it.PriceSlotID
	}
	claim := store.Claim{LaneID: b.LaneID(), BookingDate: b.BookingDate, SlotIDs: slotIDs, ExceptBookingID: b.ID}
	if _, err := tx.ReleaseExpiredClaims(ctx, claim, now); err != nil {
		return err
	}
	if err := tx.ReactivateItems(ctx, b.ID); err != nil {
		if errors.Is(err, store.ErrCellTaken) {
			return reservation.ErrSlotUnavailable.
				WithMessage("The hold on booking %d lapsed and its slots were booked by someone else", b.ID).
				Wrap(err)
		}
		return err
	}
	return nil
}

// notify hands the confirmation to the worker pool. Lookup failures are logged; they
// never undo the payment.
func (m *Manager) notify(ctx context.Context, b *model.Booking) {
	if m.notifier == nil {
		return
	}
	user, err := m.store.UserByID(ctx, b.UserID)
	if err != nil {
		m.log.Error("cannot notify: user lookup failed", zap.Int64("booking_id", b.ID), zap.Error(err))
		return
	}
	laneNumber := fmt.Sprintf("%d", b.LaneID())
	if lane, err := m.lanes.LaneByID(ctx, b.LaneID()); err != nil {
		m.log.Warn("lane lookup failed, using id", zap.Int64("lane_id", b.LaneID()), zap.Error(err))
	} else {
		laneNumber = lane.Number
	}

	m.notifier.Dispatch(notification.Confirmation{
		UserID:      user.ID,
		Recipient:   user.Email,
		FullName:    user.FullName,
		BookingID:   b.ID,
		BookingDate: b.BookingDate,
		LaneNumber:  laneNumber,
		TotalPrice:  model.Amount(b.TotalCents),
	})
}
