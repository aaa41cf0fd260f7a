package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bowling-booking-backend/internal/model"
)

// OccupiedCells lists the cells held on date by bookings that are PAID, or PENDING with an
// expiry after now.
func (s *gormStore) OccupiedCells(ctx context.Context, date string, now time.Time) ([]model.Cell, error) {
	var cells []model.Cell
	err := s.db.WithContext(ctx).
		Table("booking_items").
		Select("booking_items.lane_id AS lane_id, booking_items.price_slot_id AS slot_id").
		Joins("JOIN bookings ON bookings.id = booking_items.booking_id").
		Where("bookings.booking_date = ?", date).
		Where("(bookings.status = ? OR (bookings.status = ? AND bookings.expires_at > ?))",
			model.BookingPaid, model.BookingPending, now).
		Scan(&cells).Error
	if err != nil {
		return nil, fmt.Errorf("query occupied cells: %w", err)
	}
	return cells, nil
}

// ReleaseExpiredClaims deactivates live-flagged items on the claimed cells whose booking is
// CANCELLED or has an expired PENDING hold. It returns the number of released items.
//
// The owning bookings are locked FOR UPDATE in id order first, together with
// claim.ExceptBookingID when set, so a concurrent confirmation of one of them either
// finishes first (and the booking is no longer dead) or waits for this transaction.
func (s *gormStore) ReleaseExpiredClaims(ctx context.Context, claim Claim, now time.Time) (int64, error) {
	if len(claim.SlotIDs) == 0 {
		return 0, nil
	}
	db := s.db.WithContext(ctx)

	onCells := s.db.Model(&model.BookingItem{}).
		Select("booking_id").
		Where("active = ? AND lane_id = ? AND booking_date = ? AND price_slot_id IN ?",
			true, claim.LaneID, claim.BookingDate, claim.SlotIDs)
	owners := db.Model(&model.Booking{}).
		Where("id IN (?) AND (status = ? OR (status = ? AND expires_at <= ?))",
			onCells, model.BookingCancelled, model.BookingPending, now)
	if claim.ExceptBookingID != 0 {
		owners = owners.Or("id = ?", claim.ExceptBookingID)
	}

	var locked []int64
	if err := owners.Clauses(clause.Locking{Strength: "UPDATE"}).Order("id").Pluck("id", &locked).Error; err != nil {
		return 0, fmt.Errorf("lock expired claims: %w", err)
	}

	dead := make([]int64, 0, len(locked))
	for _, id := range locked {
		if id != claim.ExceptBookingID {
			dead = append(dead, id)
		}
	}
	if len(dead) == 0 {
		return 0, nil
	}

	res := db.Model(&model.BookingItem{}).
		Where("booking_id IN ? AND active = ?", dead, true).
		Where("lane_id = ? AND booking_date = ? AND price_slot_id IN ?", claim.LaneID, claim.BookingDate, claim.SlotIDs).
		Update("active", false)
	if res.Error != nil {
		return 0, fmt.Errorf("release expired claims: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CreateBooking inserts the booking header and then its items. Items are written
// explicitly so that a clash with the live-cell index surfaces as ErrCellTaken.
func (s *gormStore) CreateBooking(ctx context.Context, booking *model.Booking) error {
	db := s.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(booking).Error; err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	if len(booking.Items) == 0 {
		return nil
	}

	for i := range booking.Items {
		booking.Items[i].BookingID = booking.ID
		booking.Items[i].BookingDate = booking.BookingDate
	}
	if err := db.Create(&booking.Items).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrCellTaken, err)
		}
		return fmt.Errorf("insert booking items: %w", err)
	}
	return nil
}

func (s *gormStore) BookingByID(ctx context.Context, id int64) (*model.Booking, error) {
	var booking model.Booking
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("booking_items.id") }).
		First(&booking, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &booking, nil
}

// ReactivateItems flags every item of the booking as a live claim again. All items are
// written, active or not, so the update waits on any transaction still holding them.
func (s *gormStore) ReactivateItems(ctx context.Context, bookingID int64) error {
	err := s.db.WithContext(ctx).Model(&model.BookingItem{}).
		Where("booking_id = ?", bookingID).
		Update("active", true).Error
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrCellTaken, err)
		}
		return fmt.Errorf("reactivate items of booking %d: %w", bookingID, err)
	}
	return nil
}

// MarkPaid moves a PENDING booking to PAID. It reports whether this call performed the
// transition; a booking in any other state is left untouched.
func (s *gormStore) MarkPaid(ctx context.Context, bookingID int64) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Booking{}).
		Where("id = ? AND status = ?", bookingID, model.BookingPending).
		Update("status", model.BookingPaid)
	if res.Error != nil {
		return false, fmt.Errorf("mark booking %d paid: %w", bookingID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ExpireStaleHolds cancels PENDING bookings whose hold ended at or before now and releases
// their items. It returns the bookings it cancelled.
func (s *gormStore) ExpireStaleHolds(ctx context.Context, now time.Time) ([]model.Booking, error) {
	db := s.db.WithContext(ctx)

	var candidates []model.Booking
	err := db.Where("status = ? AND expires_at <= ?", model.BookingPending, now).
		Order("id").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("find stale holds: %w", err)
	}

	var expired []model.Booking
	for _, b := range candidates {
		res := db.Model(&model.Booking{}).
			Where("id = ? AND status = ?", b.ID, model.BookingPending).
			Update("status", model.BookingCancelled)
		if res.Error != nil {
			return nil, fmt.Errorf("cancel booking %d: %w", b.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			// Confirmed concurrently.
			continue
		}
		if err := db.Model(&model.BookingItem{}).
			Where("booking_id = ?", b.ID).
			Update("active", false).Error; err != nil {
			return nil, fmt.Errorf("release items of booking %d: %w", b.ID, err)
		}
		b.Status = model.BookingCancelled
		expired = append(expired, b)
	}
	return expired, nil
}
