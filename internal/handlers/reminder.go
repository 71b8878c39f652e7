package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"dayplan/internal/database"
	"dayplan/internal/models"
	"dayplan/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateReminder handles the creation of a new timed reminder
func CreateReminder(c *gin.Context) {
	var request models.CreateReminderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	username, ok := requireUsername(c)
	if !ok {
		return
	}

	reminder, err := createReminderForUser(database.GetDB(), services.GetDispatcher(), username, request.Message, request.DelayMinutes)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create reminder", err)
		return
	}

	c.JSON(http.StatusCreated, reminder)
}

// createReminderForUser persists the reminder first, then schedules its
// delivery. A failed schedule marks the record schedule_failed instead
// of rolling back or failing the request, so the caller always gets the
// persisted record back with an honest delivery state. Shared by the
// JSON handler and the assistant's set_reminder command.
func createReminderForUser(db *gorm.DB, dispatcher *services.Dispatcher, username, message string, delayMinutes int) (*models.Reminder, error) {
	now := time.Now()
	reminder := models.Reminder{
		Username:       username,
		Message:        message,
		DelayMinutes:   delayMinutes,
		DeliveryStatus: models.DeliveryStatusScheduled,
		FireAt:         now.Add(time.Duration(delayMinutes) * time.Minute),
		CreatedAt:      now,
	}

	if err := db.Create(&reminder).Error; err != nil {
		return nil, err
	}

	payload := models.SendReminderPayload{
		ReminderID:   reminder.ID,
		Username:     username,
		Message:      message,
		DelayMinutes: delayMinutes,
	}

	// The delay is the user's exact minutes, not adjusted by creation latency
	if _, err := dispatcher.Trigger(models.JobKindSendReminder, payload, time.Duration(delayMinutes)*time.Minute); err != nil {
		log.Printf("Error: failed to schedule reminder %d: %v", reminder.ID, err)
		if uerr := db.Model(&reminder).Update("delivery_status", models.DeliveryStatusScheduleFailed).Error; uerr != nil {
			log.Printf("Error: failed to mark reminder %d schedule_failed: %v", reminder.ID, uerr)
		}
	}

	return &reminder, nil
}

// ToggleReminderCompleted flips the user's acknowledgement flag. The
// delivery status is untouched: completing a reminder does not cancel
// or rewrite its delivery.
func ToggleReminderCompleted(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}
	reminderID := c.Param("reminder_id")

	db := database.GetDB()

	var reminder models.Reminder
	if err := db.Where("id = ? AND username = ?", reminderID, username).First(&reminder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Reminder not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch reminder", err)
		return
	}

	if err := db.Model(&reminder).Update("completed", !reminder.Completed).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update reminder", err)
		return
	}

	c.JSON(http.StatusOK, reminder)
}

// ListReminders returns the caller's reminders, soonest fire time first
func ListReminders(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	db := database.GetDB()
	var reminders []models.Reminder
	if err := db.Where("username = ?", username).Order("fire_at").Find(&reminders).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch reminders", err)
		return
	}

	c.JSON(http.StatusOK, reminders)
}
