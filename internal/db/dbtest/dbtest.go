// Package dbtest opens throwaway SQLite databases for tests.
package dbtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bowling-booking-backend/internal/db"
	"bowling-booking-backend/internal/model"
)

// Open returns a migrated in-memory database private to the test. The pool is pinned
// to one connection so the in-memory database survives and concurrent callers
// serialize on it.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))
	return gormDB
}

// Venue is the fixture written by SeedVenue.
type Venue struct {
	Lanes    []model.Lane
	Schedule model.Schedule
	Slots    []model.PriceSlot
}

// Lane returns the lane with the given display number.
func (v Venue) Lane(number string) model.Lane {
	for _, l := range v.Lanes {
		if l.Number == number {
			return l
		}
	}
	panic("dbtest: no lane " + number)
}

// SeedVenue creates lanes "1" to "4" and one schedule open every day with hourly slots
// from 09:00 to 12:00 priced 25.00, 30.00 and 30.00.
func SeedVenue(t *testing.T, gormDB *gorm.DB) Venue {
	t.Helper()

	v := Venue{
		Lanes: []model.Lane{
			{Number: "1", Type: model.LaneNormal},
			{Number: "2", Type: model.LaneNormal},
			{Number: "3", Type: model.LaneNormal},
			{Number: "4", Type: model.LanePremium},
		},
		Schedule: model.Schedule{Name: "Every day"},
	}
	require.NoError(t, gormDB.Create(&v.Lanes).Error)
	require.NoError(t, gormDB.Create(&v.Schedule).Error)

	v.Slots = []model.PriceSlot{
		{ScheduleID: v.Schedule.ID, StartMinute: 9 * 60, EndMinute: 10 * 60, PriceCents: 2500},
		{ScheduleID: v.Schedule.ID, StartMinute: 10 * 60, EndMinute: 11 * 60, PriceCents: 3000},
		{ScheduleID: v.Schedule.ID, StartMinute: 11 * 60, EndMinute: 12 * 60, PriceCents: 3000},
	}
	require.NoError(t, gormDB.Create(&v.Slots).Error)

	for d := 0; d < 7; d++ {
		require.NoError(t, gormDB.Create(&model.DayConfig{Weekday: d, ScheduleID: v.Schedule.ID}).Error)
	}
	return v
}
