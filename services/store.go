package services

import (
	"context"
	"time"

	"agentcrm-backend/models"

	"github.com/google/uuid"
)

// ClientStore reads clients for the reminder engine.
type ClientStore interface {
	// ListReminderEligibleClients returns active clients with reminders enabled and an expiry date.
	ListReminderEligibleClients(ctx context.Context) ([]models.Client, error)
	// GetClient returns ErrNotFound unless the client exists and belongs to userID.
	GetClient(ctx context.Context, userID, clientID uuid.UUID) (*models.Client, error)
}

// ReminderOutcome is the delivery result written onto an existing reminder row.
type ReminderOutcome struct {
	Status            string
	DeliveryStatus    string
	FailureReason     string
	SentDate          *time.Time
	Cost              float64
	ProviderMessageID string
}

type ReminderStore interface {
	CreateReminder(ctx context.Context, reminder *models.Reminder) error
	UpdateReminderOutcome(ctx context.Context, id uuid.UUID, outcome ReminderOutcome) error
	// ListDueScheduledReminders returns scheduled reminders due at or before now, client preloaded.
	ListDueScheduledReminders(ctx context.Context, now time.Time) ([]models.Reminder, error)
	// ReminderExistsSince reports whether a reminder for (client, day offset) was created at or after since.
	ReminderExistsSince(ctx context.Context, clientID uuid.UUID, daysBeforeExpiry int, since time.Time) (bool, error)
}

type UsageStore interface {
	// FindUsage returns ErrNotFound when the user has no row for month.
	FindUsage(ctx context.Context, userID uuid.UUID, month time.Time) (*models.SMSUsage, error)
	// CreateUsage inserts the row; created is false when a concurrent insert won.
	CreateUsage(ctx context.Context, usage *models.SMSUsage) (created bool, err error)
	IncrementUsage(ctx context.Context, id uuid.UUID) error
	// PlanSMSQuota returns the sms quota of the user's active plan, nil when unlimited or no plan.
	PlanSMSQuota(ctx context.Context, userID uuid.UUID) (*int, error)
}

type ActivityStore interface {
	CreateActivityLog(ctx context.Context, entry *models.ActivityLog) error
}
