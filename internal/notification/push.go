package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"bowling-booking-backend/config"
	"bowling-booking-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// SubscriptionStore is the push subscription storage PushSender needs.
type SubscriptionStore interface {
	PushSubscriptionsForUser(ctx context.Context, userID int64) ([]model.PushSubscription, error)
	DeletePushSubscriptionByEndpoint(ctx context.Context, endpoint string) error
}

// PushSender delivers confirmations to every browser the customer subscribed.
type PushSender struct {
	store   SubscriptionStore
	options *webpush.Options
	sender  NotificationSender
	log     *zap.Logger
}

// WebPushOptions builds the VAPID options from configuration.
func WebPushOptions(cfg config.PushConfig) *webpush.Options {
	return &webpush.Options{
		VAPIDPublicKey:  cfg.PublicKey,
		VAPIDPrivateKey: cfg.PrivateKey,
		Subscriber:      cfg.Subject,
		TTL:             cfg.TTL,
	}
}

// NewPushSender creates a push channel using the real web push transport.
func NewPushSender(store SubscriptionStore, options *webpush.Options, log *zap.Logger) *PushSender {
	return &PushSender{store: store, options: options, sender: &WebPushSender{}, log: log}
}

func (p *PushSender) Name() string { return "webpush" }

type pushMessage struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	BookingID int64  `json:"booking_id"`
}

// Send pushes c to each subscription of the recipient. Subscriptions the push service
// reports as gone are deleted.
func (p *PushSender) Send(ctx context.Context, c Confirmation) error {
	subs, err := p.store.PushSubscriptionsForUser(ctx, c.UserID)
	if err != nil {
		return fmt.Errorf("load push subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	payload, err := json.Marshal(pushMessage{
		Title:     "Booking confirmed",
		Body:      fmt.Sprintf("Lane %s on %s is yours. Paid %.2f.", c.LaneNumber, c.BookingDate, c.TotalPrice),
		BookingID: c.BookingID,
	})
	if err != nil {
		return err
	}

	var failed int
	for _, sub := range subs {
		if err := p.sendOne(ctx, sub, payload); err != nil {
			p.log.Warn("push delivery failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
			failed++
		}
	}
	if failed == len(subs) {
		return fmt.Errorf("push delivery failed for all %d subscriptions", failed)
	}
	return nil
}

func (p *PushSender) sendOne(ctx context.Context, sub model.PushSubscription, payload []byte) error {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := p.sender.Send(payload, wpSub, p.options)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		p.log.Info("push subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := p.store.DeletePushSubscriptionByEndpoint(ctx, sub.Endpoint); err != nil {
			p.log.Warn("failed to delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
		return nil
	case resp.StatusCode >= 400:
		return fmt.Errorf("push service answered %d", resp.StatusCode)
	}
	return nil
}
