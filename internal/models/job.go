package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Job kinds understood by the dispatcher
const (
	JobKindSendReminder      = "send-reminder"
	JobKindSendEventReminder = "send-event-reminder"
)

// Job lifecycle states
const (
	JobStatusPending = "pending"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// ScheduledJob is a row in the durable delayed-delivery queue. A pending
// job whose run_at has passed is picked up by the dispatcher worker; a
// handler error leaves it pending so the next poll retries it
// (at-least-once), until MaxAttempts moves it to failed.
type ScheduledJob struct {
	ID          uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	Kind        string         `gorm:"size:40;not null;index" json:"kind"`
	Payload     datatypes.JSON `gorm:"not null" json:"payload"`
	RunAt       time.Time      `gorm:"not null;index" json:"run_at"`
	Status      string         `gorm:"size:10;not null;default:pending;index" json:"status"`
	Attempts    int            `gorm:"not null;default:0" json:"attempts"`
	LastError   string         `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// BeforeCreate hook for scheduled jobs
func (j *ScheduledJob) BeforeCreate(tx *gorm.DB) error {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now()
	}
	if j.Status == "" {
		j.Status = JobStatusPending
	}
	return nil
}

// SendReminderPayload is the payload of a send-reminder job
type SendReminderPayload struct {
	ReminderID   uint   `json:"reminder_id"`
	Username     string `json:"username"`
	Message      string `json:"message"`
	DelayMinutes int    `json:"delay_minutes"`
}

// SendEventReminderPayload is the payload of a send-event-reminder job
type SendEventReminderPayload struct {
	EventID      uint      `json:"event_id"`
	Username     string    `json:"username"`
	Title        string    `json:"title"`
	EventDate    time.Time `json:"event_date"`
	DelayMinutes int       `json:"delay_minutes"`
}
