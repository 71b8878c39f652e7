package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"dayplan/internal/database"
	"dayplan/internal/models"
	"dayplan/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// setupTestDB opens an in-memory database named after the test so
// parallel tests never share state, and points the package-wide handle
// at it
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Account{},
		&models.Session{},
		&models.Task{},
		&models.Reminder{},
		&models.Event{},
		&models.ScheduledJob{},
	))

	database.DB = db
	return db
}

// setupTestRouter builds a router with the API routes behind a stand-in
// auth middleware that trusts the X-Test-User header
func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupTestDB(t)
	services.InitDispatcher(db, nil)

	router := gin.New()
	api := router.Group("/api")
	api.Use(func(c *gin.Context) {
		if user := c.GetHeader("X-Test-User"); user != "" {
			c.Set("username", user)
		}
		c.Next()
	})
	{
		api.GET("/dashboard", GetDashboard)

		api.GET("/tasks", ListTasks)
		api.POST("/tasks", CreateTask)
		api.POST("/tasks/:task_id/toggle", ToggleTaskStatus)

		api.GET("/reminders", ListReminders)
		api.POST("/reminders", CreateReminder)
		api.POST("/reminders/:reminder_id/toggle", ToggleReminderCompleted)

		api.GET("/events", ListEvents)
		api.POST("/events", CreateEvent)

		api.POST("/chat", Chat)
	}

	return router, db
}

// doRequest performs a JSON request as the given user. An empty user
// leaves the request unauthenticated.
func doRequest(t *testing.T, router *gin.Engine, method, path, user string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
