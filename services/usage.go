package services

import (
	"context"
	"time"

	"agentcrm-backend/models"
	"agentcrm-backend/utils"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Usage is a user's SMS count for the current month.
type Usage struct {
	Month      time.Time `json:"month"`
	SMSSent    int       `json:"smsSent"`
	QuotaLimit *int      `json:"quotaLimit"`
}

// UsageTracker counts SMS sends per user per month. It never blocks a send;
// QuotaGate makes that decision.
type UsageTracker struct {
	store UsageStore
	clock Clock
}

func NewUsageTracker(store UsageStore, clock Clock) *UsageTracker {
	return &UsageTracker{store: store, clock: clock}
}

func (t *UsageTracker) currentMonth() time.Time {
	return utils.BeginningOfMonth(t.clock.Now())
}

func (t *UsageTracker) GetUsage(ctx context.Context, userID uuid.UUID) (*Usage, error) {
	month := t.currentMonth()

	row, err := t.store.FindUsage(ctx, userID, month)
	switch {
	case err == nil:
		return &Usage{Month: month, SMSSent: row.SMSSent, QuotaLimit: row.QuotaLimit}, nil
	case !errors.Is(err, ErrNotFound):
		return nil, errors.Wrap(err, "find sms usage")
	}

	quota, err := t.store.PlanSMSQuota(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "load plan quota")
	}
	return &Usage{Month: month, SMSSent: 0, QuotaLimit: quota}, nil
}

// Increment adds one send to the user's row for this month, creating the row
// with the plan quota on the first send of the month.
func (t *UsageTracker) Increment(ctx context.Context, userID uuid.UUID) error {
	month := t.currentMonth()

	row, err := t.store.FindUsage(ctx, userID, month)
	if err == nil {
		return errors.Wrap(t.store.IncrementUsage(ctx, row.ID), "increment sms usage")
	}
	if !errors.Is(err, ErrNotFound) {
		return errors.Wrap(err, "find sms usage")
	}

	quota, err := t.store.PlanSMSQuota(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "load plan quota")
	}

	created, err := t.store.CreateUsage(ctx, &models.SMSUsage{
		ID:         uuid.New(),
		UserID:     userID,
		Month:      month,
		SMSSent:    1,
		QuotaLimit: quota,
	})
	if err != nil {
		return errors.Wrap(err, "create sms usage")
	}
	if created {
		return nil
	}

	// Lost the insert race; the row exists now.
	row, err = t.store.FindUsage(ctx, userID, month)
	if err != nil {
		return errors.Wrap(err, "find sms usage")
	}
	return errors.Wrap(t.store.IncrementUsage(ctx, row.ID), "increment sms usage")
}
