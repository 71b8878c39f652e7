package models

import (
	"time"

	"gorm.io/gorm"
)

// Account represents a user account created from a verified Google
// sign-in. The Google refresh token is stored encrypted and is only ever
// read by the calendar sync helper.
type Account struct {
	Username              string         `gorm:"primaryKey;size:30;not null" json:"username"`
	GoogleID              string         `gorm:"uniqueIndex;size:128;not null" json:"-"`
	Email                 string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	EmailVerified         bool           `json:"email_verified"`
	FullName              string         `gorm:"size:100" json:"full_name"`
	AvatarURL             string         `gorm:"size:512" json:"avatar_url"`
	Locale                string         `gorm:"size:10" json:"-"`
	EncryptedRefreshToken string         `gorm:"type:text" json:"-"`
	TokenExpiry           time.Time      `json:"-"`
	LastLogin             time.Time      `gorm:"not null" json:"last_login"`
	CreatedAt             time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt             time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasGoogleToken reports whether a refresh token is on file for the
// calendar sync helper
func (a *Account) HasGoogleToken() bool {
	return a.EncryptedRefreshToken != ""
}
