package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"dayplan/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReminderSchedulesJob(t *testing.T) {
	router, db := setupTestRouter(t)
	before := time.Now()

	w := doRequest(t, router, http.MethodPost, "/api/reminders", "alice", map[string]interface{}{
		"message":       "stretch",
		"delay_minutes": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var reminder models.Reminder
	require.NoError(t, db.First(&reminder).Error)
	assert.Equal(t, "alice", reminder.Username)
	assert.Equal(t, "stretch", reminder.Message)
	assert.Equal(t, 5, reminder.DelayMinutes)
	assert.Equal(t, models.DeliveryStatusScheduled, reminder.DeliveryStatus)
	assert.False(t, reminder.Completed)
	assert.Nil(t, reminder.FiredAt)
	assert.WithinDuration(t, before.Add(5*time.Minute), reminder.FireAt, 5*time.Second)

	var job models.ScheduledJob
	require.NoError(t, db.First(&job).Error)
	assert.Equal(t, models.JobKindSendReminder, job.Kind)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.WithinDuration(t, before.Add(5*time.Minute), job.RunAt, 5*time.Second)

	var payload models.SendReminderPayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, reminder.ID, payload.ReminderID)
	assert.Equal(t, "alice", payload.Username)
	assert.Equal(t, 5, payload.DelayMinutes)
}

func TestCreateReminderRejectsZeroDelay(t *testing.T) {
	router, db := setupTestRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/reminders", "alice", map[string]interface{}{
		"message":       "stretch",
		"delay_minutes": 0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	db.Model(&models.Reminder{}).Count(&count)
	assert.Zero(t, count)
}

func TestToggleReminderTouchesOnlyCompleted(t *testing.T) {
	router, db := setupTestRouter(t)

	reminder := models.Reminder{
		Username:       "alice",
		Message:        "call mom",
		DelayMinutes:   10,
		DeliveryStatus: models.DeliveryStatusDelivered,
		FireAt:         time.Now().Add(10 * time.Minute),
	}
	require.NoError(t, db.Create(&reminder).Error)

	w := doRequest(t, router, http.MethodPost, "/api/reminders/1/toggle", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.First(&reminder, reminder.ID).Error)
	assert.True(t, reminder.Completed)
	assert.Equal(t, models.DeliveryStatusDelivered, reminder.DeliveryStatus,
		"completion toggle must not touch delivery status")

	// Toggling again clears the flag
	w = doRequest(t, router, http.MethodPost, "/api/reminders/1/toggle", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, db.First(&reminder, reminder.ID).Error)
	assert.False(t, reminder.Completed)
}

func TestToggleReminderCrossUser(t *testing.T) {
	router, db := setupTestRouter(t)

	reminder := models.Reminder{
		Username:     "alice",
		Message:      "secret",
		DelayMinutes: 5,
		FireAt:       time.Now().Add(5 * time.Minute),
	}
	require.NoError(t, db.Create(&reminder).Error)

	w := doRequest(t, router, http.MethodPost, "/api/reminders/1/toggle", "bob", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, db.First(&reminder, reminder.ID).Error)
	assert.False(t, reminder.Completed)
}

func TestListRemindersScopedToOwner(t *testing.T) {
	router, db := setupTestRouter(t)

	require.NoError(t, db.Create(&models.Reminder{
		Username: "alice", Message: "water plants", DelayMinutes: 5, FireAt: time.Now().Add(5 * time.Minute),
	}).Error)
	require.NoError(t, db.Create(&models.Reminder{
		Username: "bob", Message: "feed cat", DelayMinutes: 5, FireAt: time.Now().Add(5 * time.Minute),
	}).Error)

	w := doRequest(t, router, http.MethodGet, "/api/reminders", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Contains(t, w.Body.String(), "water plants")
	assert.NotContains(t, w.Body.String(), "feed cat")
}
