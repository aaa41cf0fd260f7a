// Package occupancy answers which (lane, slot) cells are taken on a date.
package occupancy

import (
	"context"
	"fmt"
	"time"

	"bowling-booking-backend/internal/model"
)

// Set is a hash set of occupied cells.
type Set map[model.Cell]struct{}

// Contains reports whether the cell for lane and slot is occupied.
func (s Set) Contains(laneID, slotID int64) bool {
	_, ok := s[model.Cell{LaneID: laneID, SlotID: slotID}]
	return ok
}

// Source lists the cells held by live bookings. A booking is live when it is PAID, or
// PENDING with an expiry after now.
type Source interface {
	OccupiedCells(ctx context.Context, date string, now time.Time) ([]model.Cell, error)
}

// Index computes occupancy on every call; results are never cached.
type Index struct {
	source Source
	now    func() time.Time
}

// NewIndex creates an index reading from source. A nil clock means time.Now.
func NewIndex(source Source, now func() time.Time) *Index {
	if now == nil {
		now = time.Now
	}
	return &Index{source: source, now: now}
}

// Within returns a copy of the index that reads through source, typically a
// transaction-scoped store.
func (i *Index) Within(source Source) *Index {
	return &Index{source: source, now: i.now}
}

// OccupiedCells returns the set of occupied cells on date, evaluated at the current time.
func (i *Index) OccupiedCells(ctx context.Context, date string) (Set, error) {
	cells, err := i.source.OccupiedCells(ctx, date, i.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("occupied cells for %s: %w", date, err)
	}
	set := make(Set, len(cells))
	for _, c := range cells {
		set[c] = struct{}{}
	}
	return set, nil
}
