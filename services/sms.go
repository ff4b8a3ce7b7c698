package services

import (
	"context"

	"agentcrm-backend/models"

	"go.uber.org/zap"
)

// DefaultSMSCost is an approximation per message, not a provider-sourced price.
const DefaultSMSCost = 0.05

type SMSChannel struct {
	recorder
	transport MessageTransport
	from      string
	cost      float64
	usage     *UsageTracker
}

func NewSMSChannel(transport MessageTransport, from string, cost float64, reminders ReminderStore, usage *UsageTracker, clock Clock, log *zap.Logger) *SMSChannel {
	return &SMSChannel{
		recorder:  recorder{reminders: reminders, clock: clock, log: log},
		transport: transport,
		from:      from,
		cost:      cost,
		usage:     usage,
	}
}

func (c *SMSChannel) Method() string { return models.DeliverySMS }

func (c *SMSChannel) Send(ctx context.Context, d Delivery) (*DeliveryResult, error) {
	res, err := c.deliver(ctx, models.DeliverySMS, c.cost, d, func() (*MessageReceipt, error) {
		return c.transport.SendMessage(ctx, c.from, d.Destination, d.Message)
	})
	if err != nil {
		c.log.Warn("sms delivery failed", zap.String("clientId", d.ClientID.String()), zap.Error(err))
		return nil, err
	}

	if c.usage != nil {
		if err := c.usage.Increment(ctx, d.UserID); err != nil {
			c.log.Error("failed to increment sms usage", zap.String("userId", d.UserID.String()), zap.Error(err))
		}
	}

	c.log.Info("sms sent",
		zap.String("clientId", d.ClientID.String()),
		zap.String("sid", res.MessageID),
		zap.String("status", res.Status))
	return res, nil
}
