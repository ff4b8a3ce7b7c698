package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActivityReminderSent    = "reminder_sent"
	ActivityReminderFailed  = "reminder_failed"
	ActivityReminderSkipped = "reminder_skipped"
)

// ActivityLog is an append-only audit entry.
type ActivityLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"userId"`
	ClientID   *uuid.UUID `gorm:"type:uuid;index" json:"clientId"`
	ReminderID *uuid.UUID `gorm:"type:uuid" json:"reminderId"`
	Action     string     `gorm:"type:varchar(50);not null" json:"action"`
	Details    string     `gorm:"type:text" json:"details"`
	Metadata   JSONB      `gorm:"type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt  time.Time  `gorm:"index" json:"createdAt"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
