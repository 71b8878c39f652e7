package handlers

import (
	"errors"
	"net/http"
	"time"

	"dayplan/internal/database"
	"dayplan/internal/services"

	"github.com/gin-gonic/gin"
)

// AddCalendarEventRequest is the payload for pushing an event to the
// user's Google Calendar
type AddCalendarEventRequest struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description" binding:"omitempty,max=1000"`
	StartTime   time.Time  `json:"start_time" binding:"required"`
	EndTime     *time.Time `json:"end_time" binding:"omitempty"`
}

// AddCalendarEvent inserts an event into the caller's primary Google
// Calendar using the refresh token stored at login
func AddCalendarEvent(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	var request AddCalendarEventRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	input := services.CalendarEventInput{
		Title:       request.Title,
		Description: request.Description,
		StartTime:   request.StartTime,
		EndTime:     request.EndTime,
	}

	result, err := services.AddToGoogleCalendar(c.Request.Context(), database.GetDB(), username, input)
	if err != nil {
		if errors.Is(err, services.ErrNoGoogleToken) {
			handleError(c, http.StatusBadRequest, "No Google Calendar access for this account", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to add calendar event", err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
