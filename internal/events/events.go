// Package events publishes booking state changes to a RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"bowling-booking-backend/internal/model"
)

// Routing keys.
const (
	BookingReserved = "booking.reserved"
	BookingPaid     = "booking.paid"
	BookingExpired  = "booking.expired"
)

// BookingEvent is the JSON body of every booking.* message.
type BookingEvent struct {
	BookingID   int64     `json:"booking_id"`
	UserID      int64     `json:"user_id"`
	BookingDate string    `json:"booking_date"`
	LaneID      int64     `json:"lane_id"`
	SlotIDs     []int64   `json:"slot_ids"`
	TotalPrice  float64   `json:"total_price"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewBookingEvent snapshots b for publishing.
func NewBookingEvent(b *model.Booking, at time.Time) BookingEvent {
	ev := BookingEvent{
		BookingID:   b.ID,
		UserID:      b.UserID,
		BookingDate: b.BookingDate,
		LaneID:      b.LaneID(),
		TotalPrice:  model.Amount(b.TotalCents),
		Status:      string(b.Status),
		OccurredAt:  at.UTC(),
	}
	for _, it := range b.Items {
		ev.SlotIDs = append(ev.SlotIDs, it.PriceSlotID)
	}
	return ev
}

// Publisher sends a message under a routing key.
type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
	Close() error
}

// Nop discards every message. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close() error                               { return nil }

// AMQPPublisher publishes JSON messages to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewAMQPPublisher dials url and declares the exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         b,
	})
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Open returns an AMQP publisher for url, or Nop when url is empty.
func Open(url, exchange string) (Publisher, error) {
	if url == "" {
		return Nop{}, nil
	}
	return NewAMQPPublisher(url, exchange)
}

// Emit publishes v and logs instead of returning a failure. Events never fail the
// operation that produced them.
func Emit(ctx context.Context, pub Publisher, log *zap.Logger, key string, v any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, key, v); err != nil {
		log.Warn("failed to publish event", zap.String("routing_key", key), zap.Error(err))
	}
}
