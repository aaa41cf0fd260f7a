package db

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bowling-booking-backend/config"
	"bowling-booking-backend/internal/model"
)

// Init opens the configured database, sizes its pool and runs migrations. It also
// returns the isolation level reservation transactions should request.
func Init(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, sql.IsolationLevel, error) {
	var (
		dialector gorm.Dialector
		isolation = sql.LevelDefault
	)
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		dialector = postgres.Open(cfg.DSN)
		isolation = sql.LevelReadCommitted
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel(cfg.LogLevel)),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, isolation, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, isolation, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	log.Info("running database migrations", zap.String("driver", cfg.Driver))
	if err := Migrate(db); err != nil {
		return nil, isolation, err
	}

	log.Info("database initialization complete")
	return db, isolation, nil
}

// Migrate creates or updates the schema, including the partial unique index that keeps
// live booking claims exclusive. Both PostgreSQL and SQLite support partial indexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Lane{},
		&model.Schedule{},
		&model.DayConfig{},
		&model.PriceSlot{},
		&model.Booking{},
		&model.BookingItem{},
		&model.PushSubscription{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	ddls := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_booking_items_live_cell " +
			"ON booking_items (lane_id, price_slot_id, booking_date) WHERE active",
		"CREATE INDEX IF NOT EXISTS idx_booking_items_date_booking " +
			"ON booking_items (booking_date, booking_id)",
	}
	for _, ddl := range ddls {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}

func logLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
