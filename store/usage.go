package store

import (
	"context"
	"time"

	"agentcrm-backend/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *GormStore) FindUsage(ctx context.Context, userID uuid.UUID, month time.Time) (*models.SMSUsage, error) {
	var usage models.SMSUsage
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND month = ?", userID, month.Format("2006-01-02")).
		First(&usage).Error
	if err != nil {
		return nil, notFound(err, "query sms usage")
	}
	return &usage, nil
}

func (s *GormStore) CreateUsage(ctx context.Context, usage *models.SMSUsage) (bool, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "month"}},
			DoNothing: true,
		}).
		Create(usage)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "insert sms usage")
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Model(&models.SMSUsage{}).
		Where("id = ?", id).
		UpdateColumn("sms_sent", gorm.Expr("sms_sent + ?", 1)).Error
	return errors.Wrap(err, "increment sms usage")
}

func (s *GormStore) PlanSMSQuota(ctx context.Context, userID uuid.UUID) (*int, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Preload("Plan").
		Where("user_id = ? AND status = ?", userID, models.SubscriptionActive).
		Order("started_at DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "query active subscription")
	}
	return sub.Plan.SMSQuota, nil
}
