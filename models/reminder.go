// models/reminder.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReminderScheduled = "scheduled"
	ReminderSent      = "sent"
	ReminderFailed    = "failed"
)

// Reminder records one dispatch attempt or one scheduled intent.
type Reminder struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ClientID uuid.UUID `gorm:"type:uuid;index;not null" json:"clientId"`
	UserID   uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`

	DeliveryMethod    string     `gorm:"type:varchar(20)" json:"deliveryMethod"` // sms, whatsapp, email
	MessageContent    string     `gorm:"type:text" json:"messageContent"`
	Status            string     `gorm:"type:varchar(20);index" json:"status"` // scheduled, sent, failed
	ScheduledDate     *time.Time `gorm:"index" json:"scheduledDate"`
	SentDate          *time.Time `json:"sentDate"`
	DeliveryStatus    string     `gorm:"type:varchar(30)" json:"deliveryStatus"`
	FailureReason     string     `gorm:"type:text" json:"failureReason,omitempty"`
	Cost              float64    `gorm:"type:decimal(10,4);default:0" json:"cost"`
	DaysBeforeExpiry  *int       `gorm:"index" json:"daysBeforeExpiry"`
	ProviderMessageID string     `gorm:"type:varchar(100)" json:"providerMessageId,omitempty"`

	Client *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *Reminder) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
