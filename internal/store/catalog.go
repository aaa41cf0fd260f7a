package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"bowling-booking-backend/internal/model"
)

func (s *gormStore) Lanes(ctx context.Context) ([]model.Lane, error) {
	var lanes []model.Lane
	if err := s.db.WithContext(ctx).Order("number").Find(&lanes).Error; err != nil {
		return nil, fmt.Errorf("list lanes: %w", err)
	}
	return lanes, nil
}

func (s *gormStore) LaneByID(ctx context.Context, id int64) (*model.Lane, error) {
	var lane model.Lane
	if err := s.db.WithContext(ctx).First(&lane, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &lane, nil
}

// ScheduleForWeekday returns the schedule assigned to weekday (0=Monday), or nil when the
// venue is closed that day.
func (s *gormStore) ScheduleForWeekday(ctx context.Context, weekday int) (*model.Schedule, error) {
	var schedule model.Schedule
	err := s.db.WithContext(ctx).
		Joins("JOIN day_configs ON day_configs.schedule_id = schedules.id").
		Where("day_configs.weekday = ?", weekday).
		First(&schedule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("schedule for weekday %d: %w", weekday, err)
	}
	return &schedule, nil
}

func (s *gormStore) PriceSlotsForSchedule(ctx context.Context, scheduleID int64) ([]model.PriceSlot, error) {
	var slots []model.PriceSlot
	err := s.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Order("start_minute").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("price slots for schedule %d: %w", scheduleID, err)
	}
	return slots, nil
}

// PriceSlotsByIDs returns the slots that exist among ids. Missing ids are simply absent.
func (s *gormStore) PriceSlotsByIDs(ctx context.Context, ids []int64) ([]model.PriceSlot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var slots []model.PriceSlot
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("price slots by ids: %w", err)
	}
	return slots, nil
}

// UpdatePriceSlotPrice sets the slot's price and returns the updated row.
func (s *gormStore) UpdatePriceSlotPrice(ctx context.Context, id, priceCents int64) (*model.PriceSlot, error) {
	db := s.db.WithContext(ctx)
	res := db.Model(&model.PriceSlot{}).Where("id = ?", id).Update("price_cents", priceCents)
	if res.Error != nil {
		return nil, fmt.Errorf("update price of slot %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	var slot model.PriceSlot
	if err := db.First(&slot, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &slot, nil
}

func (s *gormStore) CountLanes(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Lane{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count lanes: %w", err)
	}
	return n, nil
}

func (s *gormStore) CreateLanes(ctx context.Context, lanes []model.Lane) error {
	if len(lanes) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&lanes).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: lane number", ErrDuplicate)
		}
		return fmt.Errorf("create lanes: %w", err)
	}
	return nil
}

// CreateSchedule inserts a schedule, its price slots and its weekday assignments.
func (s *gormStore) CreateSchedule(ctx context.Context, schedule *model.Schedule, weekdays []int, slots []model.PriceSlot) error {
	db := s.db.WithContext(ctx)
	if err := db.Create(schedule).Error; err != nil {
		return fmt.Errorf("create schedule %q: %w", schedule.Name, err)
	}

	if len(slots) > 0 {
		for i := range slots {
			slots[i].ScheduleID = schedule.ID
		}
		if err := db.Create(&slots).Error; err != nil {
			return fmt.Errorf("create slots for %q: %w", schedule.Name, err)
		}
	}

	if len(weekdays) > 0 {
		days := make([]model.DayConfig, len(weekdays))
		for i, d := range weekdays {
			days[i] = model.DayConfig{Weekday: d, ScheduleID: schedule.ID}
		}
		if err := db.Create(&days).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: weekday already assigned", ErrDuplicate)
			}
			return fmt.Errorf("assign weekdays to %q: %w", schedule.Name, err)
		}
	}
	return nil
}
