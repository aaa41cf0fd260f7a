package model

import "fmt"

// LaneType distinguishes regular lanes from premium ones.
type LaneType string

const (
	LaneNormal  LaneType = "NORMAL"
	LanePremium LaneType = "PREMIUM"
)

// Lane is a physical bowling lane.
type Lane struct {
	ID     int64    `gorm:"primaryKey" json:"id"`
	Number string   `gorm:"size:16;uniqueIndex;not null" json:"number"`
	Type   LaneType `gorm:"size:16;not null;default:NORMAL" json:"type"`
}

// Schedule is a named set of price slots applied to one or more weekdays.
type Schedule struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:128;not null" json:"name"`
}

// DayConfig assigns a weekday (0=Monday .. 6=Sunday) to a schedule. The primary key
// guarantees a weekday maps to at most one schedule.
type DayConfig struct {
	Weekday    int   `gorm:"primaryKey;autoIncrement:false"`
	ScheduleID int64 `gorm:"index;not null"`
}

// PriceSlot is a priced time interval of a schedule. Times are minutes from midnight.
type PriceSlot struct {
	ID          int64 `gorm:"primaryKey" json:"id"`
	ScheduleID  int64 `gorm:"index;not null" json:"schedule_id"`
	StartMinute int   `gorm:"not null;index" json:"start_minute"`
	EndMinute   int   `gorm:"not null" json:"end_minute"`
	PriceCents  int64 `gorm:"not null" json:"price_cents"`
}

// Precedes reports whether next starts exactly where s ends.
func (s PriceSlot) Precedes(next PriceSlot) bool {
	return s.EndMinute == next.StartMinute
}

// TimeRange renders the slot as "HH:MM-HH:MM".
func (s PriceSlot) TimeRange() string {
	return fmt.Sprintf("%s-%s", FormatClock(s.StartMinute), FormatClock(s.EndMinute))
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// Amount converts cents to a currency amount for presentation.
func Amount(cents int64) float64 {
	return float64(cents) / 100
}
