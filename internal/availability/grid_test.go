package availability

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bowling-booking-backend/internal/apperror"
	"bowling-booking-backend/internal/catalog"
	"bowling-booking-backend/internal/db/dbtest"
	"bowling-booking-backend/internal/model"
	"bowling-booking-backend/internal/occupancy"
	"bowling-booking-backend/internal/store"
)

func TestGrid(t *testing.T) {
	gormDB := dbtest.Open(t)
	venue := dbtest.SeedVenue(t, gormDB)
	st := store.NewGormStore(gormDB, sql.LevelDefault)
	now := time.Date(2025, 5, 31, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	lane2 := venue.Lane("2")
	bookings := []model.Booking{
		{UserID: 1, Status: model.BookingPaid, ExpiresAt: now.Add(-time.Hour)},
		{UserID: 2, Status: model.BookingPending, ExpiresAt: now.Add(time.Minute)},
		{UserID: 3, Status: model.BookingPending, ExpiresAt: now.Add(-time.Minute)},
	}
	for i := range bookings {
		b := &bookings[i]
		b.BookingDate = "2025-06-01"
		b.CreatedAt = now.Add(-2 * time.Hour)
		b.Items = []model.BookingItem{{LaneID: lane2.ID, PriceSlotID: venue.Slots[i].ID, Active: true}}
		require.NoError(t, st.CreateBooking(ctx, b))
	}

	svc := NewService(catalog.New(st, time.Minute), occupancy.NewIndex(st, func() time.Time { return now }))
	grid, err := svc.Grid(ctx, "2025-06-01")
	require.NoError(t, err)

	require.Len(t, grid, 4)
	assert.Equal(t, "1", grid[0].LaneNumber)
	assert.Equal(t, model.LanePremium, grid[3].LaneType)

	row := grid[1]
	require.Equal(t, lane2.ID, row.LaneID)
	require.Len(t, row.Slots, 3)
	assert.Equal(t, "09:00-10:00", row.Slots[0].Time)
	assert.InDelta(t, 25.0, row.Slots[0].Price, 1e-9)
	assert.False(t, row.Slots[0].Available, "paid booking holds its cell")
	assert.False(t, row.Slots[1].Available, "live hold holds its cell")
	assert.True(t, row.Slots[2].Available, "expired hold frees its cell")

	for _, s := range grid[0].Slots {
		assert.True(t, s.Available)
	}
}

func TestGrid_ClosedDay(t *testing.T) {
	gormDB := dbtest.Open(t)
	st := store.NewGormStore(gormDB, sql.LevelDefault)
	require.NoError(t, st.CreateLanes(context.Background(), []model.Lane{{Number: "1", Type: model.LaneNormal}}))
	// Open on Saturdays only.
	require.NoError(t, st.CreateSchedule(context.Background(), &model.Schedule{Name: "Saturday"}, []int{5}, []model.PriceSlot{
		{StartMinute: 600, EndMinute: 660, PriceCents: 1000},
	}))

	svc := NewService(catalog.New(st, time.Minute), occupancy.NewIndex(st, nil))

	grid, err := svc.Grid(context.Background(), "2025-06-02")
	require.NoError(t, err)
	assert.NotNil(t, grid)
	assert.Empty(t, grid)

	grid, err = svc.Grid(context.Background(), "2025-05-31")
	require.NoError(t, err)
	assert.Len(t, grid, 1)
}

func TestGrid_BadDate(t *testing.T) {
	svc := NewService(nil, nil)
	_, err := svc.Grid(context.Background(), "June 1st")
	assert.ErrorIs(t, err, apperror.InvalidInput(""))
}
