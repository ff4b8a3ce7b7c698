package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SMSUsage counts SMS sends for one user in one calendar month.
type SMSUsage struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_usage_user_month,priority:1" json:"userId"`
	Month      time.Time `gorm:"type:date;not null;uniqueIndex:idx_usage_user_month,priority:2" json:"month"`
	SMSSent    int       `gorm:"not null;default:0" json:"smsSent"`
	QuotaLimit *int      `json:"quotaLimit"` // nil means unlimited

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (SMSUsage) TableName() string {
	return "sms_usage"
}

func (u *SMSUsage) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}
