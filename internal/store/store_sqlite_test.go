package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bowling-booking-backend/internal/db/dbtest"
	"bowling-booking-backend/internal/model"
)

var day0 = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	return NewGormStore(dbtest.Open(t), sql.LevelDefault)
}

func seedCatalog(t *testing.T, s Store) ([]model.Lane, []model.PriceSlot) {
	t.Helper()
	ctx := context.Background()
	lanes := []model.Lane{{Number: "1", Type: model.LaneNormal}, {Number: "2", Type: model.LanePremium}}
	require.NoError(t, s.CreateLanes(ctx, lanes))

	slots := []model.PriceSlot{
		{StartMinute: 9 * 60, EndMinute: 10 * 60, PriceCents: 2000},
		{StartMinute: 10 * 60, EndMinute: 11 * 60, PriceCents: 2500},
	}
	require.NoError(t, s.CreateSchedule(ctx, &model.Schedule{Name: "All week"}, []int{0, 1, 2, 3, 4, 5, 6}, slots))
	return lanes, slots
}

func insertBooking(t *testing.T, s Store, status model.BookingStatus, expires time.Time, laneID int64, slotIDs ...int64) *model.Booking {
	t.Helper()
	b := &model.Booking{
		UserID: 1, BookingDate: "2025-06-01", Status: status,
		CreatedAt: day0.Add(-time.Hour), ExpiresAt: expires,
	}
	for _, id := range slotIDs {
		b.Items = append(b.Items, model.BookingItem{LaneID: laneID, PriceSlotID: id, Active: true})
	}
	require.NoError(t, s.CreateBooking(context.Background(), b))
	return b
}

func TestSQLiteStore_Catalog(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	lanes, slots := seedCatalog(t, s)

	got, err := s.Lanes(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].Number)

	lane, err := s.LaneByID(ctx, lanes[1].ID)
	require.NoError(t, err)
	assert.Equal(t, model.LanePremium, lane.Type)

	_, err = s.LaneByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	schedule, err := s.ScheduleForWeekday(ctx, 6)
	require.NoError(t, err)
	require.NotNil(t, schedule)
	assert.Equal(t, "All week", schedule.Name)

	ordered, err := s.PriceSlotsForSchedule(ctx, schedule.ID)
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.True(t, ordered[0].Precedes(ordered[1]))

	byIDs, err := s.PriceSlotsByIDs(ctx, []int64{slots[1].ID, 12345})
	require.NoError(t, err)
	require.Len(t, byIDs, 1)
	assert.Equal(t, int64(2500), byIDs[0].PriceCents)

	n, err := s.CountLanes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSQLiteStore_ScheduleForClosedWeekday(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateSchedule(ctx, &model.Schedule{Name: "Weekend"}, []int{5, 6}, nil))

	schedule, err := s.ScheduleForWeekday(ctx, 0)
	require.NoError(t, err)
	assert.Nil(t, schedule)
}

func TestSQLiteStore_CreateScheduleRejectsTakenWeekday(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateSchedule(ctx, &model.Schedule{Name: "A"}, []int{1}, nil))

	err := s.CreateSchedule(ctx, &model.Schedule{Name: "B"}, []int{1}, nil)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestSQLiteStore_OccupiedCells(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	lanes, slots := seedCatalog(t, s)

	insertBooking(t, s, model.BookingPaid, day0.Add(-24*time.Hour), lanes[0].ID, slots[0].ID)
	insertBooking(t, s, model.BookingPending, day0.Add(5*time.Minute), lanes[0].ID, slots[1].ID)
	insertBooking(t, s, model.BookingPending, day0, lanes[1].ID, slots[0].ID)

	cells, err := s.OccupiedCells(ctx, "2025-06-01", day0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []model.Cell{
		{LaneID: lanes[0].ID, SlotID: slots[0].ID},
		{LaneID: lanes[0].ID, SlotID: slots[1].ID},
	}, cells)

	cells, err = s.OccupiedCells(ctx, "2025-06-02", day0)
	require.NoError(t, err)
	assert.Empty(t, cells)
}

func TestSQLiteStore_LiveCellIsExclusive(t *testing.T) {
	s := newSQLiteStore(t)
	lanes, slots := seedCatalog(t, s)
	insertBooking(t, s, model.BookingPending, day0.Add(10*time.Minute), lanes[0].ID, slots[0].ID)

	b := &model.Booking{
		UserID: 2, BookingDate: "2025-06-01", Status: model.BookingPending,
		CreatedAt: day0, ExpiresAt: day0.Add(10 * time.Minute),
		Items: []model.BookingItem{{LaneID: lanes[0].ID, PriceSlotID: slots[0].ID, Active: true}},
	}
	err := s.Transaction(context.Background(), func(tx Store) error {
		return tx.CreateBooking(context.Background(), b)
	})
	assert.ErrorIs(t, err, ErrCellTaken)
}

func TestSQLiteStore_ReleaseExpiredClaims(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	lanes, slots := seedCatalog(t, s)

	expired := insertBooking(t, s, model.BookingPending, day0.Add(-time.Minute), lanes[0].ID, slots[0].ID)
	live := insertBooking(t, s, model.BookingPending, day0.Add(time.Minute), lanes[0].ID, slots[1].ID)

	claim := Claim{LaneID: lanes[0].ID, BookingDate: "2025-06-01", SlotIDs: []int64{slots[0].ID, slots[1].ID}}
	released, err := s.ReleaseExpiredClaims(ctx, claim, day0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), released)

	got, err := s.BookingByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.False(t, got.Items[0].Active)

	got, err = s.BookingByID(ctx, live.ID)
	require.NoError(t, err)
	assert.True(t, got.Items[0].Active)

	// Released cells accept a new live claim.
	insertBooking(t, s, model.BookingPending, day0.Add(10*time.Minute), lanes[0].ID, slots[0].ID)
}

func TestSQLiteStore_ReleaseExpiredClaimsSkipsExcludedBooking(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	lanes, slots := seedCatalog(t, s)
	expired := insertBooking(t, s, model.BookingPending, day0.Add(-time.Minute), lanes[0].ID, slots[0].ID)

	claim := Claim{LaneID: lanes[0].ID, BookingDate: "2025-06-01", SlotIDs: []int64{slots[0].ID}, ExceptBookingID: expired.ID}
	released, err := s.ReleaseExpiredClaims(ctx, claim, day0)
	require.NoError(t, err)
	assert.Zero(t, released)
}

func TestSQLiteStore_ReactivateItemsConflicts(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	lanes, slots := seedCatalog(t, s)

	stale := insertBooking(t, s, model.BookingPending, day0.Add(-time.Minute), lanes[0].ID, slots[0].ID)
	_, err := s.ReleaseExpiredClaims(ctx, Claim{LaneID: lanes[0].ID, BookingDate: "2025-06-01", SlotIDs: []int64{slots[0].ID}}, day0)
	require.NoError(t, err)
	insertBooking(t, s, model.BookingPending, day0.Add(10*time.Minute), lanes[0].ID, slots[0].ID)

	err = s.ReactivateItems(ctx, stale.ID)
	assert.ErrorIs(t, err, ErrCellTaken)
}

func TestSQLiteStore_MarkPaidOnlyOnce(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	lanes, slots := seedCatalog(t, s)
	b := insertBooking(t, s, model.BookingPending, day0.Add(time.Minute), lanes[0].ID, slots[0].ID)

	first, err := s.MarkPaid(ctx, b.ID)
	require.NoError(t, err)
	second, err := s.MarkPaid(ctx, b.ID)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestSQLiteStore_ExpireStaleHolds(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	lanes, slots := seedCatalog(t, s)

	stale := insertBooking(t, s, model.BookingPending, day0.Add(-time.Minute), lanes[0].ID, slots[0].ID)
	fresh := insertBooking(t, s, model.BookingPending, day0.Add(time.Minute), lanes[0].ID, slots[1].ID)
	paid := insertBooking(t, s, model.BookingPaid, day0.Add(-time.Hour), lanes[1].ID, slots[0].ID)

	expired, err := s.ExpireStaleHolds(ctx, day0)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, stale.ID, expired[0].ID)

	got, err := s.BookingByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, got.Status)
	assert.False(t, got.Items[0].Active)

	for _, id := range []int64{fresh.ID, paid.ID} {
		got, err := s.BookingByID(ctx, id)
		require.NoError(t, err)
		assert.NotEqual(t, model.BookingCancelled, got.Status)
		assert.True(t, got.Items[0].Active)
	}
}

func TestSQLiteStore_Users(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	u := &model.User{Email: "ann@example.com", PasswordHash: "x", FullName: "Ann", Role: model.RoleUser}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.NotZero(t, u.ID)

	err := s.CreateUser(ctx, &model.User{Email: "ann@example.com", PasswordHash: "y", FullName: "Other", Role: model.RoleUser})
	assert.ErrorIs(t, err, ErrDuplicate)

	byEmail, err := s.UserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byEmail.Role = model.RoleCashier
	require.NoError(t, s.SaveUser(ctx, byEmail))

	byID, err := s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleCashier, byID.Role)

	_, err = s.UserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestSQLiteStore_PushSubscriptions(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	sub := &model.PushSubscription{Endpoint: "https://push.example/1", UserID: 1, P256DH: "k", Auth: "a", CreatedAt: day0}
	require.NoError(t, s.UpsertPushSubscription(ctx, sub))

	moved := &model.PushSubscription{Endpoint: "https://push.example/1", UserID: 2, P256DH: "k2", Auth: "a2", CreatedAt: day0}
	require.NoError(t, s.UpsertPushSubscription(ctx, moved))

	subs, err := s.PushSubscriptionsForUser(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, subs)

	subs, err = s.PushSubscriptionsForUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "k2", subs[0].P256DH)

	// Another user's endpoint is not removed.
	require.NoError(t, s.DeletePushSubscription(ctx, 1, moved.Endpoint))
	_, err = s.PushSubscription(ctx, moved.Endpoint)
	require.NoError(t, err)

	require.NoError(t, s.DeletePushSubscriptionByEndpoint(ctx, moved.Endpoint))
	_, err = s.PushSubscription(ctx, moved.Endpoint)
	assert.ErrorIs(t, err, ErrNotFound)
}
