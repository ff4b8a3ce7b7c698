package store

import (
	"context"
	"time"

	"agentcrm-backend/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// FindUserByIdentifier looks a user up by email or phone.
func (s *GormStore) FindUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ? OR phone = ?", identifier, identifier).First(&user).Error
	if err != nil {
		return nil, notFound(err, "query user")
	}
	return &user, nil
}

func (s *GormStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "query user")
	}
	return &user, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(user).Error, "insert user")
}

func (s *GormStore) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("last_login", at).Error
	return errors.Wrap(err, "update last login")
}
