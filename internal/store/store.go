package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"bowling-booking-backend/internal/model"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrCellTaken is returned when a live claim on a (lane, slot, date) cell already exists.
	ErrCellTaken = errors.New("cell already claimed")
	// ErrDuplicate is returned when a write violates a unique constraint other than a cell claim.
	ErrDuplicate = errors.New("duplicate record")
)

// Claim identifies the cells a booking wants on one lane and date. ExceptBookingID, when
// non-zero, is the caller's own booking: it is locked with the released claims but its
// items are never released.
type Claim struct {
	LaneID          int64
	BookingDate     string
	SlotIDs         []int64
	ExceptBookingID int64
}

// Store defines the interface for all database operations.
type Store interface {
	// Transaction runs fn against a store bound to one database transaction. fn's error
	// (or panic) rolls the transaction back; nil commits it.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	Lanes(ctx context.Context) ([]model.Lane, error)
	LaneByID(ctx context.Context, id int64) (*model.Lane, error)
	ScheduleForWeekday(ctx context.Context, weekday int) (*model.Schedule, error)
	PriceSlotsForSchedule(ctx context.Context, scheduleID int64) ([]model.PriceSlot, error)
	PriceSlotsByIDs(ctx context.Context, ids []int64) ([]model.PriceSlot, error)
	UpdatePriceSlotPrice(ctx context.Context, id, priceCents int64) (*model.PriceSlot, error)
	CountLanes(ctx context.Context) (int64, error)
	CreateLanes(ctx context.Context, lanes []model.Lane) error
	CreateSchedule(ctx context.Context, schedule *model.Schedule, weekdays []int, slots []model.PriceSlot) error

	OccupiedCells(ctx context.Context, date string, now time.Time) ([]model.Cell, error)
	ReleaseExpiredClaims(ctx context.Context, claim Claim, now time.Time) (int64, error)
	CreateBooking(ctx context.Context, booking *model.Booking) error
	BookingByID(ctx context.Context, id int64) (*model.Booking, error)
	ReactivateItems(ctx context.Context, bookingID int64) error
	MarkPaid(ctx context.Context, bookingID int64) (bool, error)
	ExpireStaleHolds(ctx context.Context, now time.Time) ([]model.Booking, error)

	CreateUser(ctx context.Context, user *model.User) error
	UserByID(ctx context.Context, id int64) (*model.User, error)
	UserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	SaveUser(ctx context.Context, user *model.User) error

	UpsertPushSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeletePushSubscription(ctx context.Context, userID int64, endpoint string) error
	DeletePushSubscriptionByEndpoint(ctx context.Context, endpoint string) error
	PushSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	PushSubscriptionsForUser(ctx context.Context, userID int64) ([]model.PushSubscription, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db        *gorm.DB
	isolation sql.IsolationLevel
}

// NewGormStore creates a new GORM-backed store. Transactions are opened with the given
// isolation level; sql.LevelDefault leaves the driver default in place.
func NewGormStore(db *gorm.DB, isolation sql.IsolationLevel) Store {
	return &gormStore{db: db, isolation: isolation}
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	var opts []*sql.TxOptions
	if s.isolation != sql.LevelDefault {
		opts = append(opts, &sql.TxOptions{Isolation: s.isolation})
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx, isolation: s.isolation})
	}, opts...)
}

// isUniqueViolation recognises unique-constraint failures from either driver, whether or
// not gorm translated them.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
