package services

import (
	"context"

	"agentcrm-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Delivery is one message bound for one client.
type Delivery struct {
	Destination string
	Message     string
	UserID      uuid.UUID
	ClientID    uuid.UUID
	// DaysBeforeExpiry is stored on the reminder row and drives the sweep's dedupe query.
	DaysBeforeExpiry *int
	// ReminderID makes the channel record its outcome onto that row instead of inserting one.
	ReminderID *uuid.UUID
}

type DeliveryResult struct {
	Success    bool      `json:"success"`
	MessageID  string    `json:"messageId"`
	Status     string    `json:"status"`
	ReminderID uuid.UUID `json:"reminderId"`
}

// Channel sends a message over one transport and records the outcome as a reminder row.
// Failures are recorded and then returned as *DeliveryError.
type Channel interface {
	Method() string
	Send(ctx context.Context, d Delivery) (*DeliveryResult, error)
}

// MessageReceipt is what an SMS/WhatsApp provider returns for an accepted message.
type MessageReceipt struct {
	SID    string
	Status string
}

type MessageTransport interface {
	SendMessage(ctx context.Context, from, to, body string) (*MessageReceipt, error)
}

type Mail struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

type MailTransport interface {
	// SendMail returns the provider message id.
	SendMail(ctx context.Context, m Mail) (string, error)
}

// ChannelSet resolves a delivery method to its channel.
type ChannelSet map[string]Channel

func NewChannelSet(channels ...Channel) ChannelSet {
	set := make(ChannelSet, len(channels))
	for _, ch := range channels {
		set[ch.Method()] = ch
	}
	return set
}

func (s ChannelSet) Get(method string) (Channel, error) {
	ch, ok := s[method]
	if !ok {
		return nil, ErrUnsupportedMethod
	}
	return ch, nil
}

// recorder persists delivery outcomes; every channel embeds one.
type recorder struct {
	reminders ReminderStore
	clock     Clock
	log       *zap.Logger
}

// deliver runs send and records the result. A missing destination is treated as a transport failure.
func (r *recorder) deliver(ctx context.Context, method string, cost float64, d Delivery, send func() (*MessageReceipt, error)) (*DeliveryResult, error) {
	var (
		receipt *MessageReceipt
		err     error
	)
	if d.Destination == "" {
		err = ErrMissingDestination
	} else {
		receipt, err = send()
		if err == nil && receipt == nil {
			err = ErrNoReceipt
		}
	}

	if err != nil {
		r.recordFailure(ctx, method, d, err)
		return nil, &DeliveryError{Channel: method, Err: err}
	}

	reminderID := r.recordSuccess(ctx, method, cost, d, receipt)
	return &DeliveryResult{
		Success:    true,
		MessageID:  receipt.SID,
		Status:     receipt.Status,
		ReminderID: reminderID,
	}, nil
}

func (r *recorder) recordSuccess(ctx context.Context, method string, cost float64, d Delivery, receipt *MessageReceipt) uuid.UUID {
	now := r.clock.Now()
	outcome := ReminderOutcome{
		Status:            models.ReminderSent,
		DeliveryStatus:    receipt.Status,
		SentDate:          &now,
		Cost:              cost,
		ProviderMessageID: receipt.SID,
	}
	id, err := r.record(ctx, method, d, outcome)
	if err != nil {
		r.log.Error("failed to record sent reminder",
			zap.String("channel", method),
			zap.String("clientId", d.ClientID.String()),
			zap.Error(err))
	}
	return id
}

func (r *recorder) recordFailure(ctx context.Context, method string, d Delivery, cause error) {
	outcome := ReminderOutcome{
		Status:         models.ReminderFailed,
		DeliveryStatus: models.ReminderFailed,
		FailureReason:  cause.Error(),
	}
	if _, err := r.record(ctx, method, d, outcome); err != nil {
		r.log.Error("failed to record failed reminder",
			zap.String("channel", method),
			zap.String("clientId", d.ClientID.String()),
			zap.Error(err))
	}
}

func (r *recorder) record(ctx context.Context, method string, d Delivery, outcome ReminderOutcome) (uuid.UUID, error) {
	if d.ReminderID != nil {
		return *d.ReminderID, r.reminders.UpdateReminderOutcome(ctx, *d.ReminderID, outcome)
	}

	reminder := &models.Reminder{
		ID:                uuid.New(),
		ClientID:          d.ClientID,
		UserID:            d.UserID,
		DeliveryMethod:    method,
		MessageContent:    d.Message,
		Status:            outcome.Status,
		SentDate:          outcome.SentDate,
		DeliveryStatus:    outcome.DeliveryStatus,
		FailureReason:     outcome.FailureReason,
		Cost:              outcome.Cost,
		DaysBeforeExpiry:  d.DaysBeforeExpiry,
		ProviderMessageID: outcome.ProviderMessageID,
	}
	return reminder.ID, r.reminders.CreateReminder(ctx, reminder)
}
