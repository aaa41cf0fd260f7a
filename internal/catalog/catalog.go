// Package catalog serves the venue's lanes, schedules and price slots. Reads go through
// an in-memory cache because the venue configuration only changes on seeding.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"

	"bowling-booking-backend/internal/model"
)

// Source is the persistent backing of the catalog.
type Source interface {
	Lanes(ctx context.Context) ([]model.Lane, error)
	LaneByID(ctx context.Context, id int64) (*model.Lane, error)
	ScheduleForWeekday(ctx context.Context, weekday int) (*model.Schedule, error)
	PriceSlotsForSchedule(ctx context.Context, scheduleID int64) ([]model.PriceSlot, error)
	PriceSlotsByIDs(ctx context.Context, ids []int64) ([]model.PriceSlot, error)
}

// Catalog is a read-through cache over a Source.
type Catalog struct {
	src   Source
	cache *cache.Cache
}

// New creates a catalog whose entries live for ttl. A non-positive ttl disables caching.
func New(src Source, ttl time.Duration) *Catalog {
	c := &Catalog{src: src}
	if ttl > 0 {
		c.cache = cache.New(ttl, 2*ttl)
	}
	return c
}

// noSchedule marks a cached "venue closed" answer.
type noSchedule struct{}

func (c *Catalog) get(key string) (any, bool) {
	if c.cache == nil {
		return nil, false
	}
	return c.cache.Get(key)
}

func (c *Catalog) set(key string, v any) {
	if c.cache != nil {
		c.cache.SetDefault(key, v)
	}
}

// LanesOrderedByNumber returns every lane sorted by its display number.
func (c *Catalog) LanesOrderedByNumber(ctx context.Context) ([]model.Lane, error) {
	if v, ok := c.get("lanes"); ok {
		return append([]model.Lane(nil), v.([]model.Lane)...), nil
	}
	lanes, err := c.src.Lanes(ctx)
	if err != nil {
		return nil, err
	}
	c.set("lanes", lanes)
	return append([]model.Lane(nil), lanes...), nil
}

// LaneByID returns one lane or the source's not-found error.
func (c *Catalog) LaneByID(ctx context.Context, id int64) (*model.Lane, error) {
	key := fmt.Sprintf("lane:%d", id)
	if v, ok := c.get(key); ok {
		lane := v.(model.Lane)
		return &lane, nil
	}
	lane, err := c.src.LaneByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(key, *lane)
	return lane, nil
}

// ScheduleForWeekday returns the schedule covering weekday (0=Monday), or nil when the
// venue is closed that day.
func (c *Catalog) ScheduleForWeekday(ctx context.Context, weekday int) (*model.Schedule, error) {
	key := fmt.Sprintf("weekday:%d", weekday)
	if v, ok := c.get(key); ok {
		if s, ok := v.(model.Schedule); ok {
			return &s, nil
		}
		return nil, nil
	}
	schedule, err := c.src.ScheduleForWeekday(ctx, weekday)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		c.set(key, noSchedule{})
		return nil, nil
	}
	c.set(key, *schedule)
	return schedule, nil
}

// PriceSlotsForSchedule returns the schedule's slots ordered by start time.
func (c *Catalog) PriceSlotsForSchedule(ctx context.Context, scheduleID int64) ([]model.PriceSlot, error) {
	key := fmt.Sprintf("slots:%d", scheduleID)
	if v, ok := c.get(key); ok {
		return append([]model.PriceSlot(nil), v.([]model.PriceSlot)...), nil
	}
	slots, err := c.src.PriceSlotsForSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	sortByStart(slots)
	c.set(key, slots)
	for _, s := range slots {
		c.set(slotKey(s.ID), s)
	}
	return append([]model.PriceSlot(nil), slots...), nil
}

// PriceSlotsByIDs returns the known slots among ids ordered by start time. Unknown ids
// are left out so callers can detect them by count.
func (c *Catalog) PriceSlotsByIDs(ctx context.Context, ids []int64) ([]model.PriceSlot, error) {
	var (
		found  []model.PriceSlot
		misses []int64
	)
	for _, id := range ids {
		if v, ok := c.get(slotKey(id)); ok {
			found = append(found, v.(model.PriceSlot))
			continue
		}
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		fetched, err := c.src.PriceSlotsByIDs(ctx, misses)
		if err != nil {
			return nil, err
		}
		for _, s := range fetched {
			c.set(slotKey(s.ID), s)
		}
		found = append(found, fetched...)
	}

	sortByStart(found)
	return found, nil
}

// Flush drops every cached entry.
func (c *Catalog) Flush() {
	if c.cache != nil {
		c.cache.Flush()
	}
}

func slotKey(id int64) string {
	return fmt.Sprintf("slot:%d", id)
}

func sortByStart(slots []model.PriceSlot) {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].StartMinute != slots[j].StartMinute {
			return slots[i].StartMinute < slots[j].StartMinute
		}
		return slots[i].ID < slots[j].ID
	})
}
