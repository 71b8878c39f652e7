package handlers

import (
	"log"
	"net/http"
	"os"
	"time"

	"dayplan/internal/database"
	"dayplan/internal/models"
	"dayplan/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateEvent handles the creation of a new dated event
func CreateEvent(c *gin.Context) {
	var request models.CreateEventRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	username, ok := requireUsername(c)
	if !ok {
		return
	}

	event, err := createEventForUser(database.GetDB(), services.GetDispatcher(), username,
		request.Title, request.EventDate, request.ReminderMinutesBefore)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create event", err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

// createEventForUser persists the event first, then schedules its
// lead-time reminder. When the reminder time is less than a minute away
// (or already past), EVENT_PAST_REMINDER_POLICY decides: "skip" (the
// default) records the event with reminder_status=skipped and enqueues
// nothing; "immediate" clamps the delay to one minute. Shared by the
// JSON handler and the assistant's schedule_event command.
func createEventForUser(db *gorm.DB, dispatcher *services.Dispatcher, username, title string, eventDate time.Time, leadMinutes int) (*models.Event, error) {
	if leadMinutes <= 0 {
		leadMinutes = models.DefaultReminderLeadMinutes
	}

	now := time.Now()
	delayMinutes := computeEventReminderDelay(eventDate, leadMinutes, now)

	schedule := true
	if delayMinutes < 1 {
		if eventPastReminderPolicy() == "immediate" {
			delayMinutes = 1
		} else {
			schedule = false
		}
	}

	event := models.Event{
		Username:              username,
		Title:                 title,
		EventDate:             eventDate,
		ReminderMinutesBefore: leadMinutes,
		ReminderStatus:        models.EventReminderScheduled,
		CreatedAt:             now,
	}
	if !schedule {
		event.ReminderStatus = models.EventReminderSkipped
	}

	if err := db.Create(&event).Error; err != nil {
		return nil, err
	}

	if schedule {
		payload := models.SendEventReminderPayload{
			EventID:      event.ID,
			Username:     username,
			Title:        title,
			EventDate:    eventDate,
			DelayMinutes: delayMinutes,
		}

		if _, err := dispatcher.Trigger(models.JobKindSendEventReminder, payload, time.Duration(delayMinutes)*time.Minute); err != nil {
			log.Printf("Error: failed to schedule event reminder %d: %v", event.ID, err)
			if uerr := db.Model(&event).Update("reminder_status", models.EventReminderScheduleFailed).Error; uerr != nil {
				log.Printf("Error: failed to mark event %d schedule_failed: %v", event.ID, uerr)
			}
		}
	}

	return &event, nil
}

// computeEventReminderDelay returns whole minutes from now until the
// reminder time (event time minus lead), truncated toward zero
func computeEventReminderDelay(eventDate time.Time, leadMinutes int, now time.Time) int {
	reminderTime := eventDate.Add(-time.Duration(leadMinutes) * time.Minute)
	return int(reminderTime.Sub(now) / time.Minute)
}

func eventPastReminderPolicy() string {
	if v := os.Getenv("EVENT_PAST_REMINDER_POLICY"); v != "" {
		return v
	}
	return "skip"
}

// ListEvents returns the caller's events, soonest first
func ListEvents(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	db := database.GetDB()
	var events []models.Event
	if err := db.Where("username = ?", username).Order("event_date").Find(&events).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch events", err)
		return
	}

	c.JSON(http.StatusOK, events)
}
