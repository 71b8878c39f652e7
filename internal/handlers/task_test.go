package handlers

import (
	"net/http"
	"testing"

	"dayplan/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTask(t *testing.T) {
	router, db := setupTestRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/tasks", "alice", map[string]string{
		"description": "buy milk",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var task models.Task
	require.NoError(t, db.First(&task).Error)
	assert.Equal(t, "alice", task.Username)
	assert.Equal(t, "buy milk", task.Description)
	assert.Equal(t, models.TaskStatusIncomplete, task.Status)
	assert.False(t, task.CreatedAt.IsZero())
}

func TestCreateTaskUnauthenticated(t *testing.T) {
	router, db := setupTestRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/tasks", "", map[string]string{
		"description": "buy milk",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var count int64
	db.Model(&models.Task{}).Count(&count)
	assert.Zero(t, count, "unauthenticated request must not persist anything")
}

func TestCreateTaskRejectsMissingDescription(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/tasks", "alice", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToggleTaskStatus(t *testing.T) {
	router, db := setupTestRouter(t)

	task := models.Task{Username: "alice", Description: "water plants"}
	require.NoError(t, db.Create(&task).Error)
	require.Equal(t, models.TaskStatusIncomplete, task.Status)

	path := "/api/tasks/1/toggle"

	w := doRequest(t, router, http.MethodPost, path, "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, db.First(&task, task.ID).Error)
	assert.Equal(t, models.TaskStatusCompleted, task.Status)

	// Toggling again restores the original status
	w = doRequest(t, router, http.MethodPost, path, "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, db.First(&task, task.ID).Error)
	assert.Equal(t, models.TaskStatusIncomplete, task.Status)
}

func TestToggleTaskCrossUser(t *testing.T) {
	router, db := setupTestRouter(t)

	task := models.Task{Username: "alice", Description: "private task"}
	require.NoError(t, db.Create(&task).Error)

	w := doRequest(t, router, http.MethodPost, "/api/tasks/1/toggle", "bob", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, db.First(&task, task.ID).Error)
	assert.Equal(t, models.TaskStatusIncomplete, task.Status, "foreign toggle must not modify the task")
}

func TestListTasksScopedToOwner(t *testing.T) {
	router, db := setupTestRouter(t)

	require.NoError(t, db.Create(&models.Task{Username: "alice", Description: "walk the dog"}).Error)
	require.NoError(t, db.Create(&models.Task{Username: "bob", Description: "file taxes"}).Error)

	w := doRequest(t, router, http.MethodGet, "/api/tasks", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Contains(t, w.Body.String(), "walk the dog")
	assert.NotContains(t, w.Body.String(), "file taxes")
}
