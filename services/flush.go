package services

import (
	"context"
	"time"

	"agentcrm-backend/models"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type FlushReport struct {
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Due        int       `json:"due"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
}

// RunHourlyFlush dispatches scheduled reminders whose time has come. Each row
// ends up sent or failed; failed rows are not retried.
func (s *ReminderScheduler) RunHourlyFlush(ctx context.Context) (*FlushReport, error) {
	release, ok, err := s.locker.TryLock(ctx, flushLockName, flushLockTTL)
	if err != nil {
		return nil, errors.Wrap(err, "acquire flush lock")
	}
	if !ok {
		return nil, ErrRunInProgress
	}
	defer release()

	now := s.clock.Now()
	due, err := s.reminders.ListDueScheduledReminders(ctx, now)
	if err != nil {
		return nil, errors.Wrap(err, "list due scheduled reminders")
	}

	report := &FlushReport{StartedAt: now, Due: len(due)}
	for i := range due {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = s.clock.Now()
			return report, err
		}
		if s.flushReminder(ctx, &due[i]) {
			report.Sent++
		} else {
			report.Failed++
		}
	}
	report.FinishedAt = s.clock.Now()

	if report.Due > 0 {
		s.log.Info("scheduled reminders flushed",
			zap.Int("due", report.Due),
			zap.Int("sent", report.Sent),
			zap.Int("failed", report.Failed))
	}
	return report, nil
}

func (s *ReminderScheduler) flushReminder(ctx context.Context, r *models.Reminder) (sent bool) {
	defer func() {
		if p := recover(); p != nil {
			sent = false
			s.log.Error("panic while flushing reminder", zap.String("reminderId", r.ID.String()), zap.Any("panic", p))
		}
	}()

	if r.Client == nil {
		s.markFailed(ctx, r, ErrClientNotFound)
		return false
	}

	method := r.DeliveryMethod
	if method == "" {
		method = r.Client.Method()
	}
	channel, err := s.channels.Get(method)
	if err != nil {
		s.markFailed(ctx, r, err)
		return false
	}

	// The channel writes the outcome onto this row.
	_, err = channel.Send(ctx, Delivery{
		Destination:      r.Client.Destination(method),
		Message:          r.MessageContent,
		UserID:           r.UserID,
		ClientID:         r.ClientID,
		DaysBeforeExpiry: r.DaysBeforeExpiry,
		ReminderID:       &r.ID,
	})
	if err != nil {
		s.log.Warn("scheduled reminder failed", zap.String("reminderId", r.ID.String()), zap.Error(err))
		return false
	}
	return true
}

func (s *ReminderScheduler) markFailed(ctx context.Context, r *models.Reminder, cause error) {
	err := s.reminders.UpdateReminderOutcome(ctx, r.ID, ReminderOutcome{
		Status:         models.ReminderFailed,
		DeliveryStatus: models.ReminderFailed,
		FailureReason:  cause.Error(),
	})
	if err != nil {
		s.log.Error("failed to mark scheduled reminder failed", zap.String("reminderId", r.ID.String()), zap.Error(err))
	}
}
