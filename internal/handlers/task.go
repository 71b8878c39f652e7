package handlers

import (
	"errors"
	"net/http"

	"dayplan/internal/database"
	"dayplan/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateTask handles the creation of a new todo task
func CreateTask(c *gin.Context) {
	var request models.CreateTaskRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	username, ok := requireUsername(c)
	if !ok {
		return
	}

	task, err := createTaskForUser(database.GetDB(), username, request.Description)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create task", err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

// createTaskForUser persists a new incomplete task owned by username.
// Shared by the JSON handler and the assistant's add_task command.
func createTaskForUser(db *gorm.DB, username, description string) (*models.Task, error) {
	task := models.Task{
		Username:    username,
		Description: description,
		Status:      models.TaskStatusIncomplete,
	}

	if err := db.Create(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ToggleTaskStatus flips a task between completed and incomplete.
// Toggling twice returns the task to its original status.
func ToggleTaskStatus(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}
	taskID := c.Param("task_id")

	db := database.GetDB()

	// Scoping the lookup by owner means a foreign task simply isn't found
	var task models.Task
	if err := db.Where("id = ? AND username = ?", taskID, username).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Task not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch task", err)
		return
	}

	newStatus := models.TaskStatusCompleted
	if task.Status == models.TaskStatusCompleted {
		newStatus = models.TaskStatusIncomplete
	}

	if err := db.Model(&task).Update("status", newStatus).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update task", err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// ListTasks returns the caller's tasks, newest first
func ListTasks(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	db := database.GetDB()
	var tasks []models.Task
	if err := db.Where("username = ?", username).Order("created_at desc").Find(&tasks).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch tasks", err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}
