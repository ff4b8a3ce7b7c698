package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const SubscriptionActive = "active"

type Plan struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name     string    `gorm:"uniqueIndex;not null" json:"name"`
	SMSQuota *int      `json:"smsQuota"` // nil means unlimited
	Price    float64   `gorm:"type:decimal(10,2);default:0.0" json:"price"`
}

func (p *Plan) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

type Subscription struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"userId"`
	PlanID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"planId"`
	Status    string     `gorm:"type:varchar(20);not null" json:"status"` // active, cancelled, expired
	StartedAt time.Time  `json:"startedAt"`
	EndsAt    *time.Time `json:"endsAt"`

	Plan Plan `gorm:"foreignKey:PlanID" json:"plan"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
