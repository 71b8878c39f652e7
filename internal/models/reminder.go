package models

import (
	"time"

	"gorm.io/gorm"
)

// Delivery states for a reminder. Delivery is tracked separately from the
// user's completion toggle so firing a reminder never clobbers an
// acknowledgement, and vice versa.
const (
	DeliveryStatusScheduled      = "scheduled"
	DeliveryStatusDelivered      = "delivered"
	DeliveryStatusScheduleFailed = "schedule_failed"
)

// Reminder represents a timed reminder owned by one user.
//
// DeliveryStatus is advanced only by the dispatcher's send-reminder job;
// Completed is flipped only by the user's toggle. The two never touch the
// same column.
type Reminder struct {
	ID             uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Username       string     `gorm:"size:30;not null;index" json:"username"`
	Message        string     `gorm:"type:text;not null" json:"message"`
	DelayMinutes   int        `gorm:"not null" json:"delay_minutes"`
	DeliveryStatus string     `gorm:"size:20;not null;default:scheduled" json:"delivery_status"`
	Completed      bool       `gorm:"not null;default:false" json:"completed"`
	FireAt         time.Time  `gorm:"not null;index" json:"fire_at"`
	FiredAt        *time.Time `json:"fired_at,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
}

// BeforeCreate hook for reminders
func (r *Reminder) BeforeCreate(tx *gorm.DB) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if r.DeliveryStatus == "" {
		r.DeliveryStatus = DeliveryStatusScheduled
	}
	return nil
}

// CreateReminderRequest represents the data needed to create a reminder
type CreateReminderRequest struct {
	Message      string `json:"message" binding:"required,max=500"`
	DelayMinutes int    `json:"delay_minutes" binding:"required,min=1"`
}
