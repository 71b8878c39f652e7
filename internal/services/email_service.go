package services

import (
	"fmt"
	"os"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type EmailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewEmailService() *EmailService {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	fromEmail := os.Getenv("SENDGRID_NOTIFICATIONS_FROM_EMAIL")
	fromName := os.Getenv("SENDGRID_FROM_NAME")

	client := sendgrid.NewSendClient(apiKey)

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// SendReminderEmail notifies a user that their reminder has fired
func (s *EmailService) SendReminderEmail(toEmail, toName, message string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	subject := fmt.Sprintf("Reminder: %s", message)
	plainContent := fmt.Sprintf("Hello %s, this is your reminder: %s", toName, message)
	htmlContent := fmt.Sprintf("<p>Hello %s,</p><p>This is your reminder: <strong>%s</strong></p>", toName, message)

	msg := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)
	response, err := s.client.Send(msg)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send reminder email to %s: %d", toEmail, response.StatusCode)
	}
	return nil
}

// SendEventReminderEmail notifies a user that an event is coming up
func (s *EmailService) SendEventReminderEmail(toEmail, toName, title string, eventDate time.Time) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	subject := fmt.Sprintf("Upcoming: %s", title)
	plainContent := fmt.Sprintf("Hello %s, your event %s is coming up at %s. Don't miss it!",
		toName, title, eventDate.Format("Mon Jan 2, 3:04 PM"))
	htmlContent := fmt.Sprintf("<p>Hello %s,</p><p>Your event <strong>%s</strong> is coming up at %s.</p><p>Don't miss it!</p>",
		toName, title, eventDate.Format("Mon Jan 2, 3:04 PM"))

	msg := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)
	response, err := s.client.Send(msg)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send event reminder email to %s: %d", toEmail, response.StatusCode)
	}
	return nil
}
