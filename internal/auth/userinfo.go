package auth

// UserInfo holds the identity claims extracted from a verified Google ID token
type UserInfo struct {
	Sub           string `json:"sub"` // Unique Google ID
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Locale        string `json:"locale"`
}
