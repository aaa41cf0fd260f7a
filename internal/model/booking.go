package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingPaid      BookingStatus = "PAID"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Booking is a reservation header. ExpiresAt only matters while the booking is PENDING.
type Booking struct {
	ID          int64         `gorm:"primaryKey"`
	UserID      int64         `gorm:"index;not null"`
	BookingDate string        `gorm:"size:10;index;not null"` // YYYY-MM-DD
	TotalCents  int64         `gorm:"not null"`
	Status      BookingStatus `gorm:"size:16;index;not null"`
	CreatedAt   time.Time     `gorm:"not null"`
	ExpiresAt   time.Time     `gorm:"index;not null"`

	Items []BookingItem `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
}

// Live reports whether the booking still occupies its cells at now.
func (b *Booking) Live(now time.Time) bool {
	switch b.Status {
	case BookingPaid:
		return true
	case BookingPending:
		return b.ExpiresAt.After(now)
	}
	return false
}

// LaneID returns the lane shared by all items, or zero for an empty booking.
func (b *Booking) LaneID() int64 {
	if len(b.Items) == 0 {
		return 0
	}
	return b.Items[0].LaneID
}

// BookingItem is one reserved (lane, slot) cell of a booking. Active marks a live claim;
// a partial unique index on (lane_id, price_slot_id, booking_date) WHERE active keeps
// live claims exclusive.
type BookingItem struct {
	ID          int64  `gorm:"primaryKey"`
	BookingID   int64  `gorm:"index;not null"`
	LaneID      int64  `gorm:"not null"`
	PriceSlotID int64  `gorm:"not null"`
	BookingDate string `gorm:"size:10;not null"`
	Active      bool   `gorm:"not null;index"`
}

// Cell is one (lane, price slot) pair on a given date.
type Cell struct {
	LaneID int64
	SlotID int64
}
