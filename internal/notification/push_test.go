package notification

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bowling-booking-backend/internal/store"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// A helper function to create a mock database connection.
func newTestStore(t *testing.T) (store.Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return store.NewGormStore(gormDB, sql.LevelDefault), mock
}

func response(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(""))}
}

var subscriptionColumns = []string{"endpoint", "user_id", "p256dh", "auth", "created_at"}

func TestPushSender_SendsToEverySubscription(t *testing.T) {
	st, mock := newTestStore(t)
	p := NewPushSender(st, &webpush.Options{TTL: 60}, zap.NewNop())

	var endpoints []string
	p.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			endpoints = append(endpoints, sub.Endpoint)
			var msg pushMessage
			require.NoError(t, json.Unmarshal(payload, &msg))
			assert.Equal(t, int64(5), msg.BookingID)
			assert.Contains(t, msg.Body, "Lane 3 on 2025-06-01")
			return response(http.StatusCreated), nil
		},
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "push_subscriptions" WHERE user_id = $1`)).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(subscriptionColumns).
			AddRow("https://push.example/a", 9, "k1", "a1", time.Now()).
			AddRow("https://push.example/b", 9, "k2", "a2", time.Now()))

	err := p.Send(context.Background(), Confirmation{UserID: 9, BookingID: 5, BookingDate: "2025-06-01", LaneNumber: "3", TotalPrice: 55})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://push.example/a", "https://push.example/b"}, endpoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPushSender_DeletesGoneSubscription(t *testing.T) {
	st, mock := newTestStore(t)
	p := NewPushSender(st, &webpush.Options{}, zap.NewNop())
	p.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			return response(http.StatusGone), nil
		},
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "push_subscriptions" WHERE user_id = $1`)).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(subscriptionColumns).
			AddRow("https://push.example/expired", 9, "k", "a", time.Now()))
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"."endpoint" = \$1`).
		WithArgs("https://push.example/expired").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := p.Send(context.Background(), Confirmation{UserID: 9, BookingID: 5})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPushSender_NoSubscriptionsIsNotAnError(t *testing.T) {
	st, mock := newTestStore(t)
	p := NewPushSender(st, &webpush.Options{}, zap.NewNop())
	p.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			t.Fatal("nothing should be sent")
			return nil, nil
		},
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "push_subscriptions" WHERE user_id = $1`)).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows(subscriptionColumns))

	assert.NoError(t, p.Send(context.Background(), Confirmation{UserID: 4}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPushSender_AllDeliveriesFailing(t *testing.T) {
	st, mock := newTestStore(t)
	p := NewPushSender(st, &webpush.Options{}, zap.NewNop())
	p.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			return response(http.StatusInternalServerError), nil
		},
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "push_subscriptions" WHERE user_id = $1`)).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows(subscriptionColumns).
			AddRow("https://push.example/a", 9, "k", "a", time.Now()))

	assert.Error(t, p.Send(context.Background(), Confirmation{UserID: 9}))
}
