package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	DeliverySMS      = "sms"
	DeliveryWhatsApp = "whatsapp"
	DeliveryEmail    = "email"

	ClientActive   = "active"
	ClientInactive = "inactive"
)

// DefaultReminderTimings are the day offsets used when a client has none set.
var DefaultReminderTimings = []int64{15, 10, 5, 1}

type Client struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`

	Name  string `gorm:"not null" json:"name"`
	Phone string `gorm:"index" json:"phone"`
	Email string `json:"email"`

	CarMake       string `json:"carMake"`
	CarModel      string `json:"carModel"`
	PlateNumber   string `json:"plateNumber"`
	InsuranceType string `json:"insuranceType"`
	PolicyNumber  string `json:"policyNumber"`

	ExpiryDate       *time.Time    `gorm:"type:date;index" json:"expiryDate"`
	ReminderTimings  pq.Int64Array `gorm:"type:integer[];default:'{15,10,5,1}'" json:"reminderTimings"`
	DeliveryMethod   string        `gorm:"type:varchar(20);default:'sms'" json:"deliveryMethod"`
	CustomMessage    *string       `gorm:"type:text" json:"customMessage"`
	RemindersEnabled bool          `gorm:"not null" json:"remindersEnabled"`
	Status           string        `gorm:"type:varchar(20);not null;index" json:"status"` // active, inactive
	Notes            string        `json:"notes"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

// Timings returns the client's reminder offsets, falling back to the defaults.
func (c *Client) Timings() []int64 {
	if len(c.ReminderTimings) == 0 {
		return DefaultReminderTimings
	}
	return c.ReminderTimings
}

// Method returns the configured delivery method, sms when unset.
func (c *Client) Method() string {
	if c.DeliveryMethod == "" {
		return DeliverySMS
	}
	return c.DeliveryMethod
}

// Destination returns the address the given delivery method sends to.
func (c *Client) Destination(method string) string {
	if method == DeliveryEmail {
		return c.Email
	}
	return c.Phone
}
