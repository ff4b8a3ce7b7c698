package services

import (
	"context"
	"html"
	"strings"

	"agentcrm-backend/models"

	"go.uber.org/zap"
)

const (
	emailSubject = "Insurance Renewal Reminder"
	emailStatus  = "sent"
)

// EmailHTML renders a message body as a single HTML paragraph: the text is
// HTML-escaped and newlines become <br>.
func EmailHTML(body string) string {
	escaped := html.EscapeString(body)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}

type EmailChannel struct {
	recorder
	transport MailTransport
	from      string
}

func NewEmailChannel(transport MailTransport, from string, reminders ReminderStore, clock Clock, log *zap.Logger) *EmailChannel {
	return &EmailChannel{
		recorder:  recorder{reminders: reminders, clock: clock, log: log},
		transport: transport,
		from:      from,
	}
}

func (c *EmailChannel) Method() string { return models.DeliveryEmail }

func (c *EmailChannel) Send(ctx context.Context, d Delivery) (*DeliveryResult, error) {
	res, err := c.deliver(ctx, models.DeliveryEmail, 0, d, func() (*MessageReceipt, error) {
		id, err := c.transport.SendMail(ctx, Mail{
			From:    c.from,
			To:      d.Destination,
			Subject: emailSubject,
			Text:    d.Message,
			HTML:    EmailHTML(d.Message),
		})
		if err != nil {
			return nil, err
		}
		return &MessageReceipt{SID: id, Status: emailStatus}, nil
	})
	if err != nil {
		c.log.Warn("email delivery failed", zap.String("clientId", d.ClientID.String()), zap.Error(err))
		return nil, err
	}

	c.log.Info("email sent", zap.String("clientId", d.ClientID.String()), zap.String("messageId", res.MessageID))
	return res, nil
}
