package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dayplan/internal/auth"
	"dayplan/internal/models"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

var ErrNoGoogleToken = errors.New("google account not connected")

// DefaultCalendarEventDuration is used when the caller gives no end time
const DefaultCalendarEventDuration = 30 * time.Minute

// CalendarEventInput describes an entry to create in the user's primary calendar
type CalendarEventInput struct {
	Title       string
	Description string
	StartTime   time.Time
	EndTime     *time.Time
}

// CalendarEventResult is returned after a successful insert
type CalendarEventResult struct {
	EventID  string `json:"event_id"`
	HTMLLink string `json:"html_link"`
}

// AddToGoogleCalendar creates an entry in the user's primary Google
// Calendar using the refresh token stored on their account. Standalone
// helper: task and reminder creation never call it.
func AddToGoogleCalendar(ctx context.Context, db *gorm.DB, username string, input CalendarEventInput) (*CalendarEventResult, error) {
	var account models.Account
	if err := db.Where("username = ?", username).First(&account).Error; err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if !account.HasGoogleToken() {
		return nil, ErrNoGoogleToken
	}

	refreshToken, err := auth.DecryptRefreshToken(account.EncryptedRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	service, err := calendar.NewService(ctx, option.WithTokenSource(auth.TokenSource(ctx, refreshToken)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}

	end := input.StartTime.Add(DefaultCalendarEventDuration)
	if input.EndTime != nil {
		end = *input.EndTime
	}

	event := &calendar.Event{
		Summary:     input.Title,
		Description: input.Description,
		Start: &calendar.EventDateTime{
			DateTime: input.StartTime.Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: end.Format(time.RFC3339),
		},
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "popup", Minutes: 10},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := service.Events.Insert("primary", event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to insert calendar event: %w", err)
	}

	return &CalendarEventResult{
		EventID:  created.Id,
		HTMLLink: created.HtmlLink,
	}, nil
}
