package providers

import (
	"context"

	"agentcrm-backend/services"

	"github.com/pkg/errors"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioTransport sends SMS and WhatsApp messages through the Twilio Messages API.
type TwilioTransport struct {
	client *twilio.RestClient
}

func NewTwilioTransport(accountSID, authToken string) *TwilioTransport {
	return &TwilioTransport{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
	}
}

func (t *TwilioTransport) SendMessage(ctx context.Context, from, to, body string) (*services.MessageReceipt, error) {
	// twilio-go has no context support; at least don't start a call for a cancelled run.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return nil, errors.Wrap(err, "twilio create message")
	}

	receipt := &services.MessageReceipt{Status: "queued"}
	if resp.Sid != nil {
		receipt.SID = *resp.Sid
	}
	if resp.Status != nil {
		receipt.Status = *resp.Status
	}
	return receipt, nil
}

var _ services.MessageTransport = (*TwilioTransport)(nil)
