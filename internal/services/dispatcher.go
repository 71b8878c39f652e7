package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"dayplan/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReminderMailer sends delivery notifications for fired reminders. A nil
// mailer disables email without disabling delivery.
type ReminderMailer interface {
	SendReminderEmail(toEmail, toName, message string) error
	SendEventReminderEmail(toEmail, toName, title string, eventDate time.Time) error
}

// Dispatcher is the delayed-delivery queue. Trigger persists a job row;
// the worker polls for due rows and runs the handler for each kind.
// Because jobs are rows, pending deliveries survive process restarts.
type Dispatcher struct {
	db          *gorm.DB
	mailer      ReminderMailer
	interval    time.Duration
	maxAttempts int
}

var defaultDispatcher *Dispatcher

// InitDispatcher creates the process-wide dispatcher
func InitDispatcher(db *gorm.DB, mailer ReminderMailer) *Dispatcher {
	defaultDispatcher = NewDispatcher(db, mailer)
	return defaultDispatcher
}

// GetDispatcher returns the process-wide dispatcher
func GetDispatcher() *Dispatcher {
	return defaultDispatcher
}

// NewDispatcher creates a dispatcher over the given database
func NewDispatcher(db *gorm.DB, mailer ReminderMailer) *Dispatcher {
	interval := 30 * time.Second
	if v := os.Getenv("JOB_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			interval = d
		} else {
			log.Printf("Warning: invalid JOB_POLL_INTERVAL %q, using %s", v, interval)
		}
	}

	return &Dispatcher{
		db:          db,
		mailer:      mailer,
		interval:    interval,
		maxAttempts: 5,
	}
}

// Trigger enqueues a payload for execution after the delay and returns
// the job ID as the queue handle. The job is durable the moment the
// insert returns.
func (d *Dispatcher) Trigger(kind string, payload interface{}, delay time.Duration) (uint, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}

	job := models.ScheduledJob{
		Kind:    kind,
		Payload: datatypes.JSON(body),
		RunAt:   time.Now().Add(delay),
		Status:  models.JobStatusPending,
	}

	if err := d.db.Create(&job).Error; err != nil {
		return 0, fmt.Errorf("failed to enqueue %s job: %w", kind, err)
	}

	return job.ID, nil
}

// Start launches the polling worker. It exits when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Dispatcher) run(ctx context.Context) {
	log.Printf("[dispatcher] Started. Poll interval: %s", d.interval)

	// Run immediately on start to pick up jobs that came due while the
	// process was down
	d.tick(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[dispatcher] Shutting down...")
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

// tick processes all jobs whose run_at has passed
func (d *Dispatcher) tick(ctx context.Context) {
	var jobs []models.ScheduledJob
	if err := d.db.
		Where("status = ? AND run_at <= ?", models.JobStatusPending, time.Now()).
		Order("run_at").
		Limit(50).
		Find(&jobs).Error; err != nil {
		log.Printf("[dispatcher] Error: failed to poll jobs: %v", err)
		return
	}

	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		d.process(ctx, job)
	}
}

func (d *Dispatcher) process(ctx context.Context, job models.ScheduledJob) {
	err := d.execute(ctx, &job)
	if err == nil {
		now := time.Now()
		if uerr := d.db.Model(&job).Updates(map[string]interface{}{
			"status":       models.JobStatusDone,
			"attempts":     job.Attempts + 1,
			"completed_at": now,
		}).Error; uerr != nil {
			log.Printf("[dispatcher] Error: failed to mark job %d done: %v", job.ID, uerr)
		}
		return
	}

	log.Printf("[dispatcher] Error: job %d (%s) failed on attempt %d: %v", job.ID, job.Kind, job.Attempts+1, err)

	// The queue owns retry: a failed handler leaves the job pending for
	// the next poll until the attempt budget runs out
	updates := map[string]interface{}{
		"attempts":   job.Attempts + 1,
		"last_error": err.Error(),
	}
	if job.Attempts+1 >= d.maxAttempts {
		updates["status"] = models.JobStatusFailed
		log.Printf("[dispatcher] Job %d (%s) exhausted %d attempts, giving up", job.ID, job.Kind, d.maxAttempts)
	}
	if uerr := d.db.Model(&job).Updates(updates).Error; uerr != nil {
		log.Printf("[dispatcher] Error: failed to record job %d failure: %v", job.ID, uerr)
	}
}

func (d *Dispatcher) execute(ctx context.Context, job *models.ScheduledJob) error {
	switch job.Kind {
	case models.JobKindSendReminder:
		return d.sendReminder(ctx, job)
	case models.JobKindSendEventReminder:
		return d.sendEventReminder(ctx, job)
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

// sendReminder marks the reminder delivered. The payload is trusted: it
// was only ever enqueued by an authenticated request, so the update is
// scoped by record ID alone.
func (d *Dispatcher) sendReminder(ctx context.Context, job *models.ScheduledJob) error {
	var payload models.SendReminderPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("invalid send-reminder payload: %w", err)
	}

	now := time.Now()
	result := d.db.Model(&models.Reminder{}).
		Where("id = ?", payload.ReminderID).
		Updates(map[string]interface{}{
			"delivery_status": models.DeliveryStatusDelivered,
			"fired_at":        now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark reminder %d delivered: %w", payload.ReminderID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("reminder %d not found", payload.ReminderID)
	}

	log.Printf("[dispatcher] Reminder fired for user %s: %s", payload.Username, payload.Message)

	d.notify(payload.Username, func(account models.Account) error {
		return d.mailer.SendReminderEmail(account.Email, account.FullName, payload.Message)
	})

	return nil
}

// sendEventReminder marks the event's lead-time reminder delivered
func (d *Dispatcher) sendEventReminder(ctx context.Context, job *models.ScheduledJob) error {
	var payload models.SendEventReminderPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("invalid send-event-reminder payload: %w", err)
	}

	result := d.db.Model(&models.Event{}).
		Where("id = ?", payload.EventID).
		Update("reminder_status", models.EventReminderReminded)
	if result.Error != nil {
		return fmt.Errorf("failed to mark event %d reminded: %w", payload.EventID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("event %d not found", payload.EventID)
	}

	log.Printf("[dispatcher] Event reminder fired for user %s: %s", payload.Username, payload.Title)

	d.notify(payload.Username, func(account models.Account) error {
		return d.mailer.SendEventReminderEmail(account.Email, account.FullName, payload.Title, payload.EventDate)
	})

	return nil
}

// notify sends a best-effort email to the record owner. Email failure is
// logged, never surfaced: the status update already happened and the
// queue must not retry a delivered reminder just to resend mail.
func (d *Dispatcher) notify(username string, send func(models.Account) error) {
	if d.mailer == nil {
		return
	}

	var account models.Account
	if err := d.db.Where("username = ?", username).First(&account).Error; err != nil {
		log.Printf("Warning: failed to look up account %s for notification: %v", username, err)
		return
	}

	if err := send(account); err != nil {
		log.Printf("Warning: failed to send notification email to %s: %v", username, err)
	}
}
