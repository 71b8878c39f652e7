package models

import (
	"time"

	"gorm.io/gorm"
)

// Reminder states for an event's lead-time notification
const (
	EventReminderScheduled      = "scheduled"
	EventReminderReminded       = "reminded"
	EventReminderSkipped        = "skipped"
	EventReminderScheduleFailed = "schedule_failed"
)

// DefaultReminderLeadMinutes is how far before an event its reminder
// fires when the caller does not say otherwise.
const DefaultReminderLeadMinutes = 60

// Event represents a dated calendar entry owned by one user.
// ReminderStatus tracks the lead-time notification: "skipped" means the
// reminder time had already passed at creation and nothing was enqueued.
type Event struct {
	ID                    uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username              string    `gorm:"size:30;not null;index" json:"username"`
	Title                 string    `gorm:"size:200;not null" json:"title"`
	EventDate             time.Time `gorm:"not null;index" json:"event_date"`
	ReminderMinutesBefore int       `gorm:"not null;default:60" json:"reminder_minutes_before"`
	ReminderStatus        string    `gorm:"size:20;not null;default:scheduled" json:"reminder_status"`
	CreatedAt             time.Time `gorm:"not null" json:"created_at"`
}

// BeforeCreate hook for events
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.ReminderMinutesBefore == 0 {
		e.ReminderMinutesBefore = DefaultReminderLeadMinutes
	}
	if e.ReminderStatus == "" {
		e.ReminderStatus = EventReminderScheduled
	}
	return nil
}

// CreateEventRequest represents the data needed to create an event
type CreateEventRequest struct {
	Title                 string    `json:"title" binding:"required,max=200"`
	EventDate             time.Time `json:"event_date" binding:"required"`
	ReminderMinutesBefore int       `json:"reminder_minutes_before" binding:"omitempty,min=1"`
}
