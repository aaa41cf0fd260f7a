package notification

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"bowling-booking-backend/config"
)

// mailDialer is satisfied by *gomail.Dialer.
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender delivers confirmations over SMTP.
type EmailSender struct {
	from   string
	dialer mailDialer
}

// NewEmailSender creates an SMTP channel from configuration.
func NewEmailSender(cfg config.MailConfig) *EmailSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.SSL
	return &EmailSender{from: cfg.From, dialer: d}
}

func (e *EmailSender) Name() string { return "email" }

// Send mails a plain-text confirmation to the recipient.
func (e *EmailSender) Send(_ context.Context, c Confirmation) error {
	if c.Recipient == "" {
		return fmt.Errorf("booking %d has no recipient address", c.BookingID)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", c.Recipient)
	m.SetHeader("Subject", fmt.Sprintf("Booking #%d confirmed", c.BookingID))
	m.SetBody("text/plain", confirmationBody(c))

	if err := e.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", c.Recipient, err)
	}
	return nil
}

func confirmationBody(c Confirmation) string {
	name := c.FullName
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(
		"Hi %s,\n\nyour payment was received and booking #%d is confirmed.\n\n"+
			"Date: %s\nLane: %s\nTotal: %.2f\n\nSee you at the lanes!\n",
		name, c.BookingID, c.BookingDate, c.LaneNumber, c.TotalPrice)
}
