package store

import (
	"context"

	"agentcrm-backend/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func (s *GormStore) CreateActivityLog(ctx context.Context, entry *models.ActivityLog) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(entry).Error, "insert activity log")
}

func (s *GormStore) ListActivity(ctx context.Context, userID uuid.UUID, limit int) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	err := paginate(s.db.WithContext(ctx).Where("user_id = ?", userID), limit, 0).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, errors.Wrap(err, "query activity log")
	}
	return entries, nil
}
