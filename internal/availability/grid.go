// Package availability renders the lane-by-slot grid customers pick from.
package availability

import (
	"context"
	"fmt"

	"bowling-booking-backend/internal/apperror"
	"bowling-booking-backend/internal/model"
	"bowling-booking-backend/internal/occupancy"
	"bowling-booking-backend/internal/parse"
)

// Catalog is the venue data the grid is built from.
type Catalog interface {
	LanesOrderedByNumber(ctx context.Context) ([]model.Lane, error)
	ScheduleForWeekday(ctx context.Context, weekday int) (*model.Schedule, error)
	PriceSlotsForSchedule(ctx context.Context, scheduleID int64) ([]model.PriceSlot, error)
}

// Slot is one cell of a lane row.
type Slot struct {
	SlotID    int64   `json:"slot_id"`
	Time      string  `json:"time"`
	Price     float64 `json:"price"`
	Available bool    `json:"available"`
}

// LaneAvailability is one row of the grid.
type LaneAvailability struct {
	LaneID     int64          `json:"lane_id"`
	LaneNumber string         `json:"lane_number"`
	LaneType   model.LaneType `json:"lane_type"`
	Slots      []Slot         `json:"slots"`
}

// Service builds availability grids.
type Service struct {
	catalog Catalog
	index   *occupancy.Index
}

func NewService(cat Catalog, index *occupancy.Index) *Service {
	return &Service{catalog: cat, index: index}
}

// Grid returns every lane with the day's slots and whether each cell can still be booked.
// A day without a schedule yields an empty grid.
func (s *Service) Grid(ctx context.Context, rawDate string) ([]LaneAvailability, error) {
	day, date, err := parse.Date(rawDate)
	if err != nil {
		return nil, apperror.InvalidInput(err.Error())
	}

	schedule, err := s.catalog.ScheduleForWeekday(ctx, parse.Weekday(day))
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	if schedule == nil {
		return []LaneAvailability{}, nil
	}

	lanes, err := s.catalog.LanesOrderedByNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("load lanes: %w", err)
	}
	slots, err := s.catalog.PriceSlotsForSchedule(ctx, schedule.ID)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	occupied, err := s.index.OccupiedCells(ctx, date)
	if err != nil {
		return nil, err
	}

	grid := make([]LaneAvailability, 0, len(lanes))
	for _, lane := range lanes {
		row := LaneAvailability{
			LaneID:     lane.ID,
			LaneNumber: lane.Number,
			LaneType:   lane.Type,
			Slots:      make([]Slot, 0, len(slots)),
		}
		for _, slot := range slots {
			row.Slots = append(row.Slots, Slot{
				SlotID:    slot.ID,
				Time:      slot.TimeRange(),
				Price:     model.Amount(slot.PriceCents),
				Available: !occupied.Contains(lane.ID, slot.ID),
			})
		}
		grid = append(grid, row)
	}
	return grid, nil
}
