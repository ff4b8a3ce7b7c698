package services

import (
	"context"
	"fmt"
	"time"

	"agentcrm-backend/models"
	"agentcrm-backend/utils"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type SweepReport struct {
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Eligible   int       `json:"eligible"`
	Due        int       `json:"due"`
	Duplicates int       `json:"duplicates"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
}

// RunDailySweep sends today's expiry reminders. Running it more than once on
// the same day sends nothing new: a reminder already created since midnight for
// the same client and day offset is skipped.
func (s *ReminderScheduler) RunDailySweep(ctx context.Context) (*SweepReport, error) {
	release, ok, err := s.locker.TryLock(ctx, sweepLockName, sweepLockTTL)
	if err != nil {
		return nil, errors.Wrap(err, "acquire sweep lock")
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	defer release()

	now := s.clock.Now()
	clients, err := s.clients.ListReminderEligibleClients(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list reminder clients")
	}

	report := &SweepReport{StartedAt: now, Eligible: len(clients)}
	midnight := utils.BeginningOfDay(now)

	s.log.Info("daily reminder sweep started", zap.Int("clients", len(clients)))
	for i := range clients {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = s.clock.Now()
			return report, err
		}
		s.sweepClient(ctx, &clients[i], now, midnight, report)
	}
	report.FinishedAt = s.clock.Now()

	s.log.Info("daily reminder sweep completed",
		zap.Int("due", report.Due),
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
		zap.Int("duplicates", report.Duplicates),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

func (s *ReminderScheduler) sweepClient(ctx context.Context, client *models.Client, now, midnight time.Time, report *SweepReport) {
	defer func() {
		if r := recover(); r != nil {
			report.Failed++
			s.log.Error("panic while processing client", zap.String("clientId", client.ID.String()), zap.Any("panic", r))
		}
	}()

	if client.ExpiryDate == nil {
		report.Skipped++
		return
	}

	days := utils.DaysUntil(now, utils.InLocation(*client.ExpiryDate, now.Location()))
	if !isReminderDay(client.Timings(), days) {
		return
	}
	report.Due++

	exists, err := s.reminders.ReminderExistsSince(ctx, client.ID, days, midnight)
	if err != nil {
		report.Skipped++
		s.log.Error("dedupe check failed", zap.String("clientId", client.ID.String()), zap.Error(err))
		return
	}
	if exists {
		report.Duplicates++
		return
	}

	method := client.Method()
	channel, err := s.channels.Get(method)
	if err != nil {
		report.Failed++
		s.logActivity(ctx, client, nil, models.ActivityReminderFailed,
			fmt.Sprintf("Reminder for %s not sent: %v (%s)", client.Name, err, method),
			models.JSONB{"deliveryMethod": method, "daysBeforeExpiry": days, "error": err.Error()})
		return
	}

	if method == models.DeliverySMS && s.quota != nil {
		if _, err := s.quota.Check(ctx, client.UserID); err != nil {
			report.Skipped++
			s.logActivity(ctx, client, nil, models.ActivityReminderSkipped,
				fmt.Sprintf("Reminder for %s skipped: %v", client.Name, err),
				models.JSONB{"deliveryMethod": method, "daysBeforeExpiry": days, "error": err.Error()})
			return
		}
	}

	res, err := channel.Send(ctx, Delivery{
		Destination:      client.Destination(method),
		Message:          MessageFor(client, days),
		UserID:           client.UserID,
		ClientID:         client.ID,
		DaysBeforeExpiry: &days,
	})
	if err != nil {
		report.Failed++
		s.logActivity(ctx, client, nil, models.ActivityReminderFailed,
			fmt.Sprintf("Failed to send %s reminder to %s: %v", method, client.Name, err),
			models.JSONB{"deliveryMethod": method, "daysBeforeExpiry": days, "error": err.Error()})
		return
	}

	report.Sent++
	s.logActivity(ctx, client, &res.ReminderID, models.ActivityReminderSent,
		fmt.Sprintf("Sent %s reminder to %s (%d days before expiry)", method, client.Name, days),
		models.JSONB{"deliveryMethod": method, "daysBeforeExpiry": days, "messageId": res.MessageID})
}

func isReminderDay(timings []int64, days int) bool {
	for _, t := range timings {
		if int(t) == days {
			return true
		}
	}
	return false
}

func (s *ReminderScheduler) logActivity(ctx context.Context, client *models.Client, reminderID *uuid.UUID, action, details string, meta models.JSONB) {
	if s.activity == nil {
		return
	}
	clientID := client.ID
	entry := &models.ActivityLog{
		ID:         uuid.New(),
		UserID:     client.UserID,
		ClientID:   &clientID,
		ReminderID: reminderID,
		Action:     action,
		Details:    details,
		Metadata:   meta,
	}
	if err := s.activity.CreateActivityLog(ctx, entry); err != nil {
		s.log.Error("failed to write activity log", zap.String("action", action), zap.Error(err))
	}
}
