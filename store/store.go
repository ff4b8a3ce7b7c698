// Package store implements the reminder engine's store contracts on gorm/postgres.
package store

import (
	"agentcrm-backend/services"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// notFound maps gorm's missing-row error onto services.ErrNotFound.
func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

var (
	_ services.ClientStore   = (*GormStore)(nil)
	_ services.ReminderStore = (*GormStore)(nil)
	_ services.UsageStore    = (*GormStore)(nil)
	_ services.ActivityStore = (*GormStore)(nil)
)
