package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"dayplan/internal/database"
	"dayplan/internal/models"
	"dayplan/internal/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
	"gorm.io/gorm"
)

var googleOAuthConfig *oauth2.Config

// InitOAuth initializes the Google OAuth configuration. The calendar
// scope is requested up front so the stored refresh token can serve the
// calendar sync helper later.
func InitOAuth() error {
	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	redirectURL := os.Getenv("GOOGLE_REDIRECT_URL")

	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET, and GOOGLE_REDIRECT_URL must be set")
	}

	googleOAuthConfig = &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
			"openid",
			"https://www.googleapis.com/auth/calendar.events",
		},
		Endpoint: google.Endpoint,
	}

	return nil
}

// GetLoginURL returns the Google OAuth login URL with a secure state parameter
func GetLoginURL(c *gin.Context) (string, error) {
	state, err := SetOAuthState(c)
	if err != nil {
		return "", err
	}

	// Offline access so Google returns a refresh token we can store for
	// the calendar helper
	return googleOAuthConfig.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent select_account"),
	), nil
}

// TokenSource returns an oauth2 token source seeded with a stored refresh token
func TokenSource(ctx context.Context, refreshToken string) oauth2.TokenSource {
	return googleOAuthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
}

// HandleGoogleCallback processes the OAuth callback from Google
func HandleGoogleCallback(c *gin.Context) {
	// Verify state parameter (CSRF protection)
	state := c.Query("state")
	if !VerifyOAuthState(c, state) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state, possible CSRF attack"})
		c.Abort()
		return
	}

	// Exchange auth code for token
	code := c.Query("code")
	token, err := googleOAuthConfig.Exchange(context.Background(), code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "code exchange failed"})
		c.Abort()
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get id_token"})
		c.Abort()
		return
	}

	payload, err := verifyIDToken(rawIDToken, googleOAuthConfig.ClientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to verify id_token: %v", err)})
		c.Abort()
		return
	}

	userInfo, err := extractUserInfoFromPayload(payload)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to extract user info from token"})
		c.Abort()
		return
	}

	db := database.GetDB()
	account, err := upsertAccount(db, userInfo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
		c.Abort()
		return
	}

	// Persist the refresh token (encrypted) for the calendar helper
	if err := SaveRefreshTokenToAccount(db, userInfo.Sub, token); err != nil {
		log.Printf("Warning: failed to save refresh token: %v", err)
	}

	if err := CreateSession(c, token, userInfo, account.Username); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		c.Abort()
		return
	}

	log.Printf("Login: %s from %s", account.Username, utils.GetRealClientIP(c))

	c.Redirect(http.StatusTemporaryRedirect, frontendURL()+"/dashboard")
}

// upsertAccount finds the account for a verified Google identity,
// creating it on first sign-in with a username derived from the email
func upsertAccount(db *gorm.DB, userInfo *UserInfo) (*models.Account, error) {
	var account models.Account
	err := db.Where("google_id = ?", userInfo.Sub).First(&account).Error
	if err == nil {
		db.Model(&account).Update("last_login", time.Now())
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	now := time.Now()
	account = models.Account{
		Username:      usernameFromEmail(db, userInfo.Email),
		GoogleID:      userInfo.Sub,
		Email:         userInfo.Email,
		EmailVerified: userInfo.EmailVerified,
		FullName:      userInfo.Name,
		AvatarURL:     userInfo.Picture,
		Locale:        userInfo.Locale,
		LastLogin:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := db.Create(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// usernameFromEmail derives a username from the email local part,
// appending a random suffix when the name is taken
func usernameFromEmail(db *gorm.DB, email string) string {
	base := strings.ToLower(strings.SplitN(email, "@", 2)[0])
	cleaned := make([]rune, 0, len(base))
	for _, r := range base {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			cleaned = append(cleaned, r)
		}
	}
	candidate := string(cleaned)
	if candidate == "" {
		candidate = "user"
	}
	if len(candidate) > 24 {
		candidate = candidate[:24]
	}

	var count int64
	db.Model(&models.Account{}).Where("username = ?", candidate).Count(&count)
	if count == 0 {
		return candidate
	}

	suffix, err := GenerateRandomString(5)
	if err != nil {
		suffix = fmt.Sprintf("%d", time.Now().UnixNano()%100000)
	}
	return candidate + "-" + strings.ToLower(suffix)
}

// verifyIDToken verifies the ID token using Google's official library
func verifyIDToken(idToken string, audience string) (*idtoken.Payload, error) {
	payload, err := idtoken.Validate(context.Background(), idToken, audience)
	if err != nil {
		return nil, fmt.Errorf("failed to validate ID token: %w", err)
	}
	return payload, nil
}

// extractUserInfoFromPayload extracts user info from the verified token payload
func extractUserInfoFromPayload(payload *idtoken.Payload) (*UserInfo, error) {
	email, ok := payload.Claims["email"].(string)
	if !ok {
		return nil, errors.New("email claim missing from token")
	}

	userInfo := &UserInfo{
		Sub:   payload.Subject,
		Email: email,
	}

	if name, ok := payload.Claims["name"].(string); ok {
		userInfo.Name = name
	}
	if picture, ok := payload.Claims["picture"].(string); ok {
		userInfo.Picture = picture
	}
	if givenName, ok := payload.Claims["given_name"].(string); ok {
		userInfo.GivenName = givenName
	}
	if familyName, ok := payload.Claims["family_name"].(string); ok {
		userInfo.FamilyName = familyName
	}
	if locale, ok := payload.Claims["locale"].(string); ok {
		userInfo.Locale = locale
	}
	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok {
		userInfo.EmailVerified = emailVerified
	}

	return userInfo, nil
}

// AuthMiddleware validates the session and puts the resolved username
// into the request context. Handlers read it once and pass it explicitly
// into every store and dispatch call.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := GetSession(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		if session.IsExpired() {
			DeleteSession(c)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired, please log in again"})
			c.Abort()
			return
		}

		c.Set("username", session.Username)
		c.Set("sub", session.GoogleID)

		c.Next()
	}
}

func frontendURL() string {
	if url := os.Getenv("FRONTEND_URL"); url != "" {
		return url
	}
	return ""
}
