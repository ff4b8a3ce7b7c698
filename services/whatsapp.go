package services

import (
	"context"
	"strings"

	"agentcrm-backend/models"

	"go.uber.org/zap"
)

const whatsAppPrefix = "whatsapp:"

// WhatsAppAddress prefixes a phone number with the whatsapp channel marker unless it already has it.
func WhatsAppAddress(number string) string {
	if number == "" || strings.HasPrefix(number, whatsAppPrefix) {
		return number
	}
	return whatsAppPrefix + number
}

// WhatsAppChannel sends through the provider's WhatsApp sandbox, which is free.
type WhatsAppChannel struct {
	recorder
	transport MessageTransport
	from      string
}

func NewWhatsAppChannel(transport MessageTransport, from string, reminders ReminderStore, clock Clock, log *zap.Logger) *WhatsAppChannel {
	return &WhatsAppChannel{
		recorder:  recorder{reminders: reminders, clock: clock, log: log},
		transport: transport,
		from:      WhatsAppAddress(from),
	}
}

func (c *WhatsAppChannel) Method() string { return models.DeliveryWhatsApp }

func (c *WhatsAppChannel) Send(ctx context.Context, d Delivery) (*DeliveryResult, error) {
	res, err := c.deliver(ctx, models.DeliveryWhatsApp, 0, d, func() (*MessageReceipt, error) {
		return c.transport.SendMessage(ctx, c.from, WhatsAppAddress(d.Destination), d.Message)
	})
	if err != nil {
		c.log.Warn("whatsapp delivery failed", zap.String("clientId", d.ClientID.String()), zap.Error(err))
		return nil, err
	}

	c.log.Info("whatsapp sent", zap.String("clientId", d.ClientID.String()), zap.String("sid", res.MessageID))
	return res, nil
}
