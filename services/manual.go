package services

import (
	"context"
	"strings"
	"time"

	"agentcrm-backend/models"
	"agentcrm-backend/utils"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type SendRequest struct {
	ClientIDs      []uuid.UUID
	Message        string // template; empty uses the client's custom or default message
	DeliveryMethod string // empty uses each client's configured method
	ScheduledDate  *time.Time
}

type ClientSendResult struct {
	ClientID   uuid.UUID  `json:"clientId"`
	Status     string     `json:"status"` // sent, scheduled, failed
	ReminderID *uuid.UUID `json:"reminderId,omitempty"`
	Error      string     `json:"error,omitempty"`
	Err        error      `json:"-"`
}

type SendResult struct {
	Results        []ClientSendResult `json:"results"`
	Successful     int                `json:"successful"`
	Failed         int                `json:"failed"`
	TotalProcessed int                `json:"totalProcessed"`
}

// ManualSender fans a user-triggered message out over selected clients, either
// dispatching now or leaving a scheduled row for the hourly flush.
type ManualSender struct {
	clients   ClientStore
	reminders ReminderStore
	channels  ChannelSet
	quota     QuotaChecker // optional; checked before every immediate SMS
	clock     Clock
	log       *zap.Logger
}

func NewManualSender(clients ClientStore, reminders ReminderStore, channels ChannelSet, quota QuotaChecker, clock Clock, log *zap.Logger) *ManualSender {
	return &ManualSender{
		clients:   clients,
		reminders: reminders,
		channels:  channels,
		quota:     quota,
		clock:     clock,
		log:       log,
	}
}

// Send processes every client independently; one client's failure lands in
// its result entry and never stops the batch.
func (m *ManualSender) Send(ctx context.Context, userID uuid.UUID, req SendRequest) (*SendResult, error) {
	if len(req.ClientIDs) == 0 {
		return nil, ErrNoClients
	}
	if req.DeliveryMethod != "" {
		if _, err := m.channels.Get(req.DeliveryMethod); err != nil {
			return nil, err
		}
	}

	result := &SendResult{Results: make([]ClientSendResult, 0, len(req.ClientIDs))}
	for _, clientID := range req.ClientIDs {
		entry := m.sendOne(ctx, userID, clientID, req)
		if entry.Status == models.ReminderFailed {
			result.Failed++
		} else {
			result.Successful++
		}
		result.Results = append(result.Results, entry)
	}
	result.TotalProcessed = len(result.Results)

	m.log.Info("manual reminder batch processed",
		zap.String("userId", userID.String()),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (m *ManualSender) sendOne(ctx context.Context, userID, clientID uuid.UUID, req SendRequest) ClientSendResult {
	failed := func(err error) ClientSendResult {
		return ClientSendResult{ClientID: clientID, Status: models.ReminderFailed, Error: err.Error(), Err: err}
	}

	client, err := m.clients.GetClient(ctx, userID, clientID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return failed(ErrClientNotFound)
		}
		m.log.Error("failed to load client", zap.String("clientId", clientID.String()), zap.Error(err))
		return failed(err)
	}

	method := req.DeliveryMethod
	if method == "" {
		method = client.Method()
	}

	now := m.clock.Now()
	days := 0
	if client.ExpiryDate != nil {
		days = utils.DaysUntil(now, utils.InLocation(*client.ExpiryDate, now.Location()))
	}

	var message string
	if strings.TrimSpace(req.Message) == "" {
		message = MessageFor(client, days)
	} else {
		message = RenderMessage(req.Message, client, days)
	}

	if req.ScheduledDate != nil {
		scheduled := *req.ScheduledDate
		reminder := &models.Reminder{
			ID:             uuid.New(),
			ClientID:       client.ID,
			UserID:         userID,
			DeliveryMethod: method,
			MessageContent: message,
			Status:         models.ReminderScheduled,
			ScheduledDate:  &scheduled,
			DeliveryStatus: models.ReminderScheduled,
		}
		if err := m.reminders.CreateReminder(ctx, reminder); err != nil {
			m.log.Error("failed to schedule reminder", zap.String("clientId", clientID.String()), zap.Error(err))
			return failed(err)
		}
		return ClientSendResult{ClientID: clientID, Status: models.ReminderScheduled, ReminderID: &reminder.ID}
	}

	channel, err := m.channels.Get(method)
	if err != nil {
		return failed(err)
	}
	// The request middleware only sees usage before the batch starts.
	if method == models.DeliverySMS && m.quota != nil {
		if _, err := m.quota.Check(ctx, userID); err != nil {
			if !errors.Is(err, ErrQuotaExceeded) {
				m.log.Error("failed to check sms quota", zap.String("userId", userID.String()), zap.Error(err))
			}
			return failed(err)
		}
	}
	res, err := channel.Send(ctx, Delivery{
		Destination: client.Destination(method),
		Message:     message,
		UserID:      userID,
		ClientID:    client.ID,
	})
	if err != nil {
		return failed(err)
	}
	return ClientSendResult{ClientID: clientID, Status: models.ReminderSent, ReminderID: &res.ReminderID}
}
