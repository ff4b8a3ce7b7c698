package store

import (
	"context"

	"agentcrm-backend/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func (s *GormStore) ListReminderEligibleClients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	err := s.db.WithContext(ctx).
		Where("status = ? AND reminders_enabled = ? AND expiry_date IS NOT NULL", models.ClientActive, true).
		Order("created_at").
		Find(&clients).Error
	if err != nil {
		return nil, errors.Wrap(err, "query reminder clients")
	}
	return clients, nil
}

func (s *GormStore) GetClient(ctx context.Context, userID, clientID uuid.UUID) (*models.Client, error) {
	var client models.Client
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, clientID).
		First(&client).Error
	if err != nil {
		return nil, notFound(err, "query client")
	}
	return &client, nil
}

type ClientFilter struct {
	Status string
	Search string
	Limit  int
	Offset int
}

func (s *GormStore) ListClients(ctx context.Context, userID uuid.UUID, f ClientFilter) ([]models.Client, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Client{}).Where("user_id = ?", userID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("name ILIKE ? OR phone ILIKE ? OR plate_number ILIKE ? OR policy_number ILIKE ?", like, like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count clients")
	}

	var clients []models.Client
	if err := paginate(q, f.Limit, f.Offset).Order("expiry_date ASC NULLS LAST").Find(&clients).Error; err != nil {
		return nil, 0, errors.Wrap(err, "query clients")
	}
	return clients, total, nil
}

func (s *GormStore) CreateClient(ctx context.Context, client *models.Client) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(client).Error, "insert client")
}

func (s *GormStore) SaveClient(ctx context.Context, client *models.Client) error {
	return errors.Wrap(s.db.WithContext(ctx).Save(client).Error, "update client")
}

// DeleteClient soft deletes; it returns services.ErrNotFound when nothing matched.
func (s *GormStore) DeleteClient(ctx context.Context, userID, clientID uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, clientID).Delete(&models.Client{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete client")
	}
	if res.RowsAffected == 0 {
		return errNotFound
	}
	return nil
}

// FindClientByPhone is used to reject duplicate phone numbers within one agent's book.
func (s *GormStore) FindClientByPhone(ctx context.Context, userID uuid.UUID, phone string) (*models.Client, error) {
	var client models.Client
	err := s.db.WithContext(ctx).Where("user_id = ? AND phone = ?", userID, phone).First(&client).Error
	if err != nil {
		return nil, notFound(err, "query client by phone")
	}
	return &client, nil
}
