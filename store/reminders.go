package store

import (
	"context"
	"time"

	"agentcrm-backend/models"
	"agentcrm-backend/services"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

func (s *GormStore) CreateReminder(ctx context.Context, reminder *models.Reminder) error {
	return errors.Wrap(s.db.WithContext(ctx).Omit("Client").Create(reminder).Error, "insert reminder")
}

func (s *GormStore) UpdateReminderOutcome(ctx context.Context, id uuid.UUID, o services.ReminderOutcome) error {
	updates := map[string]interface{}{
		"status":          o.Status,
		"delivery_status": o.DeliveryStatus,
		"failure_reason":  o.FailureReason,
	}
	if o.SentDate != nil {
		updates["sent_date"] = *o.SentDate
		updates["cost"] = o.Cost
	}
	if o.ProviderMessageID != "" {
		updates["provider_message_id"] = o.ProviderMessageID
	}

	res := s.db.WithContext(ctx).Model(&models.Reminder{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return errors.Wrap(res.Error, "update reminder outcome")
	}
	if res.RowsAffected == 0 {
		return errNotFound
	}
	return nil
}

func (s *GormStore) ListDueScheduledReminders(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := s.db.WithContext(ctx).
		Preload("Client").
		Where("status = ? AND scheduled_date IS NOT NULL AND scheduled_date <= ?", models.ReminderScheduled, now).
		Order("scheduled_date").
		Find(&reminders).Error
	if err != nil {
		return nil, errors.Wrap(err, "query due reminders")
	}
	return reminders, nil
}

func (s *GormStore) ReminderExistsSince(ctx context.Context, clientID uuid.UUID, daysBeforeExpiry int, since time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Reminder{}).
		Where("client_id = ? AND days_before_expiry = ? AND created_at >= ?", clientID, daysBeforeExpiry, since).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "query existing reminder")
	}
	return count > 0, nil
}

type ReminderFilter struct {
	Status         string
	DeliveryMethod string
	ClientID       *uuid.UUID
	Limit          int
	Offset         int
}

func (s *GormStore) ListReminders(ctx context.Context, userID uuid.UUID, f ReminderFilter) ([]models.Reminder, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Reminder{}).Where("user_id = ?", userID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.DeliveryMethod != "" {
		q = q.Where("delivery_method = ?", f.DeliveryMethod)
	}
	if f.ClientID != nil {
		q = q.Where("client_id = ?", *f.ClientID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count reminders")
	}

	var reminders []models.Reminder
	err := paginate(q, f.Limit, f.Offset).
		Preload("Client").
		Order("created_at DESC").
		Find(&reminders).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "query reminders")
	}
	return reminders, total, nil
}

func (s *GormStore) GetReminder(ctx context.Context, userID, id uuid.UUID) (*models.Reminder, error) {
	var reminder models.Reminder
	err := s.db.WithContext(ctx).Preload("Client").
		Where("user_id = ? AND id = ?", userID, id).
		First(&reminder).Error
	if err != nil {
		return nil, notFound(err, "query reminder")
	}
	return &reminder, nil
}

func (s *GormStore) DeleteReminder(ctx context.Context, userID, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Delete(&models.Reminder{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete reminder")
	}
	if res.RowsAffected == 0 {
		return errNotFound
	}
	return nil
}

type ReminderStatistics struct {
	Total     int64            `json:"total"`
	Sent      int64            `json:"sent"`
	Failed    int64            `json:"failed"`
	Scheduled int64            `json:"scheduled"`
	ByMethod  map[string]int64 `json:"byMethod"`
	TotalCost float64          `json:"totalCost"`
	ThisMonth int64            `json:"thisMonth"`
}

func (s *GormStore) ReminderStatistics(ctx context.Context, userID uuid.UUID, monthStart time.Time) (*ReminderStatistics, error) {
	stats := &ReminderStatistics{ByMethod: map[string]int64{}}
	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Reminder{}).Where("user_id = ?", userID)
	}

	var byStatus []struct {
		Status string
		Count  int64
	}
	if err := base().Select("status, COUNT(*) AS count").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, errors.Wrap(err, "count reminders by status")
	}
	for _, row := range byStatus {
		stats.Total += row.Count
		switch row.Status {
		case models.ReminderSent:
			stats.Sent = row.Count
		case models.ReminderFailed:
			stats.Failed = row.Count
		case models.ReminderScheduled:
			stats.Scheduled = row.Count
		}
	}

	var byMethod []struct {
		DeliveryMethod string
		Count          int64
	}
	if err := base().Select("delivery_method, COUNT(*) AS count").Group("delivery_method").Scan(&byMethod).Error; err != nil {
		return nil, errors.Wrap(err, "count reminders by method")
	}
	for _, row := range byMethod {
		stats.ByMethod[row.DeliveryMethod] = row.Count
	}

	if err := base().Select("COALESCE(SUM(cost), 0)").Scan(&stats.TotalCost).Error; err != nil {
		return nil, errors.Wrap(err, "sum reminder cost")
	}
	if err := base().Where("created_at >= ?", monthStart).Count(&stats.ThisMonth).Error; err != nil {
		return nil, errors.Wrap(err, "count reminders this month")
	}
	return stats, nil
}
