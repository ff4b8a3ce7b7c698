package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"agentcrm-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var manualNow = time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)

func (fx *engineFixtures) manualSender() *ManualSender {
	return NewManualSender(fx.store, fx.store, fx.channels, nil, fx.clock, zap.NewNop())
}

func TestManualSender_MixedBatch(t *testing.T) {
	fx := newEngineFixtures(manualNow)
	fx.mail.On("SendMail", mock.Anything, mock.Anything).Return("<id@example.com>", nil)
	userID := uuid.New()

	withEmail := smsClient(userID, "+15550000601", date(2026, 3, 25))
	withEmail.Email = "one@example.com"
	a := fx.store.addClient(withEmail)
	noEmail := fx.store.addClient(smsClient(userID, "+15550000602", date(2026, 3, 25)))
	also := smsClient(userID, "+15550000603", date(2026, 3, 25))
	also.Email = "three@example.com"
	c := fx.store.addClient(also)

	res, err := fx.manualSender().Send(context.Background(), userID, SendRequest{
		ClientIDs:      []uuid.UUID{a.ID, noEmail.ID, c.ID},
		Message:        "Hi {client_name}, {days} days left",
		DeliveryMethod: models.DeliveryEmail,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalProcessed)
	assert.Equal(t, 2, res.Successful)
	assert.Equal(t, 1, res.Failed)

	require.Len(t, res.Results, 3)
	assert.Equal(t, models.ReminderSent, res.Results[0].Status)
	assert.Equal(t, models.ReminderFailed, res.Results[1].Status)
	assert.Contains(t, res.Results[1].Error, ErrMissingDestination.Error())
	assert.Equal(t, models.ReminderSent, res.Results[2].Status)

	rows := fx.store.remindersFor(a.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, "Hi Client +15550000601, 15 days left", rows[0].MessageContent)
	assert.Nil(t, rows[0].DaysBeforeExpiry)
	fx.mail.AssertNumberOfCalls(t, "SendMail", 2)
}

func TestManualSender_UnknownOrForeignClientFails(t *testing.T) {
	fx := newEngineFixtures(manualNow)
	fx.smsAccepts()
	userID := uuid.New()
	own := fx.store.addClient(smsClient(userID, "+15550000701", nil))
	foreign := fx.store.addClient(smsClient(uuid.New(), "+15550000702", nil))

	res, err := fx.manualSender().Send(context.Background(), userID, SendRequest{
		ClientIDs: []uuid.UUID{own.ID, foreign.ID, uuid.New()},
		Message:   "ping",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, ErrClientNotFound.Error(), res.Results[1].Error)
	assert.Equal(t, ErrClientNotFound.Error(), res.Results[2].Error)
	assert.Empty(t, fx.store.remindersFor(foreign.ID))
}

func TestManualSender_DefaultsToClientMethodAndMessage(t *testing.T) {
	fx := newEngineFixtures(manualNow)
	userID := uuid.New()
	c := smsClient(userID, "+15550000801", date(2026, 3, 11))
	c.DeliveryMethod = models.DeliveryWhatsApp
	client := fx.store.addClient(c)
	fx.whatsapp.On("SendMessage", mock.Anything, mock.Anything, "whatsapp:+15550000801", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "expires TOMORROW")
	})).Return(&MessageReceipt{SID: "WA", Status: "sent"}, nil).Once()

	res, err := fx.manualSender().Send(context.Background(), userID, SendRequest{ClientIDs: []uuid.UUID{client.ID}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Successful)
	fx.whatsapp.AssertExpectations(t)
}

func TestManualSender_ScheduledRequestOnlyCreatesRows(t *testing.T) {
	fx := newEngineFixtures(manualNow)
	userID := uuid.New()
	client := fx.store.addClient(smsClient(userID, "+15550000901", date(2026, 3, 25)))
	at := manualNow.Add(3 * time.Hour)

	res, err := fx.manualSender().Send(context.Background(), userID, SendRequest{
		ClientIDs:     []uuid.UUID{client.ID},
		Message:       "later, {client_name}",
		ScheduledDate: &at,
	})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, models.ReminderScheduled, res.Results[0].Status)
	assert.Equal(t, 1, res.Successful)

	rows := fx.store.remindersFor(client.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, models.ReminderScheduled, rows[0].Status)
	assert.Equal(t, models.DeliverySMS, rows[0].DeliveryMethod)
	assert.Equal(t, "later, Client +15550000901", rows[0].MessageContent)
	assert.Equal(t, at, *rows[0].ScheduledDate)
	fx.sms.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	// The flush picks it up once it is due.
	fx.smsAccepts()
	fx.clock.Advance(3 * time.Hour)
	report, err := fx.scheduler(nil).RunHourlyFlush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, models.ReminderSent, fx.store.remindersFor(client.ID)[0].Status)
}

func TestManualSender_RejectsBadRequests(t *testing.T) {
	fx := newEngineFixtures(manualNow)
	sender := fx.manualSender()

	_, err := sender.Send(context.Background(), uuid.New(), SendRequest{})
	assert.ErrorIs(t, err, ErrNoClients)

	_, err = sender.Send(context.Background(), uuid.New(), SendRequest{ClientIDs: []uuid.UUID{uuid.New()}, DeliveryMethod: "pigeon"})
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestManualSender_QuotaCheckedBeforeEverySMS(t *testing.T) {
	fx := newEngineFixtures(manualNow)
	ctx := context.Background()
	userID := uuid.New()
	fx.store.quotas[userID] = intPtr(3)
	require.NoError(t, fx.usage.Increment(ctx, userID))
	require.NoError(t, fx.usage.Increment(ctx, userID))

	fx.sms.On("SendMessage", mock.Anything, testSMSFrom, mock.Anything, mock.Anything).
		Return(&MessageReceipt{SID: "SM-ok", Status: "queued"}, nil)

	var ids []uuid.UUID
	for _, phone := range []string{"+15550000701", "+15550000702", "+15550000703"} {
		ids = append(ids, fx.store.addClient(smsClient(userID, phone, date(2026, 3, 25))).ID)
	}

	sender := NewManualSender(fx.store, fx.store, fx.channels, NewQuotaGate(fx.usage), fx.clock, zap.NewNop())
	res, err := sender.Send(ctx, userID, SendRequest{ClientIDs: ids, DeliveryMethod: models.DeliverySMS})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, 2, res.Failed)

	require.Len(t, res.Results, 3)
	assert.Equal(t, models.ReminderSent, res.Results[0].Status)
	for _, entry := range res.Results[1:] {
		assert.Equal(t, models.ReminderFailed, entry.Status)
		assert.ErrorIs(t, entry.Err, ErrQuotaExceeded)
	}

	assert.Equal(t, 3, fx.store.smsSent(userID))
	fx.sms.AssertNumberOfCalls(t, "SendMessage", 1)
}

func TestManualSender_EmptyReceiptFailsOnlyThatClient(t *testing.T) {
	fx := newEngineFixtures(manualNow)
	userID := uuid.New()
	bad := fx.store.addClient(smsClient(userID, "+15550000801", date(2026, 3, 25)))
	good := fx.store.addClient(smsClient(userID, "+15550000802", date(2026, 3, 25)))

	fx.sms.On("SendMessage", mock.Anything, testSMSFrom, bad.Phone, mock.Anything).Return(nil, nil)
	fx.sms.On("SendMessage", mock.Anything, testSMSFrom, good.Phone, mock.Anything).
		Return(&MessageReceipt{SID: "SM-ok", Status: "queued"}, nil)

	var res *SendResult
	require.NotPanics(t, func() {
		var err error
		res, err = fx.manualSender().Send(context.Background(), userID, SendRequest{ClientIDs: []uuid.UUID{bad.ID, good.ID}})
		require.NoError(t, err)
	})
	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, 1, res.Failed)
	assert.ErrorIs(t, res.Results[0].Err, ErrNoReceipt)
	assert.Equal(t, 1, fx.store.smsSent(userID))
}
