package models

import (
	"time"

	"gorm.io/gorm"
)

// Task status values for the user-facing completion toggle
const (
	TaskStatusIncomplete = "incomplete"
	TaskStatusCompleted  = "completed"
)

// Task represents a single todo item owned by one user.
// Tasks are only ever created and status-toggled, never hard-deleted.
type Task struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username    string    `gorm:"size:30;not null;index" json:"username"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Status      string    `gorm:"size:20;not null;default:incomplete" json:"status"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
}

// BeforeCreate hook ensures a fresh task always starts incomplete
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if t.Status == "" {
		t.Status = TaskStatusIncomplete
	}
	return nil
}

// CreateTaskRequest represents the data needed to create a task
type CreateTaskRequest struct {
	Description string `json:"description" binding:"required,max=500"`
}
