package handlers

import (
	"errors"
	"net/http"

	"dayplan/internal/database"
	"dayplan/internal/models"
	"dayplan/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetProfile returns the authenticated user's account
func GetProfile(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	db := database.GetDB()
	var account models.Account
	if err := db.Where("username = ?", username).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			handleError(c, http.StatusNotFound, "Account not found", err)
			return
		}
		handleError(c, http.StatusInternalServerError, "Failed to fetch account", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":       account.Username,
		"email":          account.Email,
		"full_name":      account.FullName,
		"avatar_url":     account.AvatarURL,
		"locale":         account.Locale,
		"has_calendar":   account.HasGoogleToken(),
		"last_login":     account.LastLogin,
		"created_at":     account.CreatedAt,
		"email_verified": account.EmailVerified,
	})
}

// UpdateAvatar replaces the user's avatar with an uploaded image
func UpdateAvatar(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		handleError(c, http.StatusBadRequest, "Avatar file is required", err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to read avatar file", err)
		return
	}
	defer file.Close()

	imageService, err := services.NewImageService()
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Image uploads are not configured", err)
		return
	}

	avatarURL, err := imageService.UploadAvatar(c.Request.Context(), file, fileHeader.Filename, username)
	if err != nil {
		handleError(c, http.StatusBadRequest, "Failed to upload avatar", err)
		return
	}

	db := database.GetDB()
	if err := db.Model(&models.Account{}).Where("username = ?", username).
		Update("avatar_url", avatarURL).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to save avatar", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": avatarURL})
}

// GetDashboard returns the caller's tasks, reminders and events in one
// payload for the landing view
func GetDashboard(c *gin.Context) {
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

	var reminders []models.Reminder
	if err := db.Where("username = ?", username).Order("fire_at").Find(&reminders).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch reminders", err)
		return
	}

	var events []models.Event
	if err := db.Where("username = ?", username).Order("event_date").Find(&events).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch events", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks":     tasks,
		"reminders": reminders,
		"events":    events,
	})
}
