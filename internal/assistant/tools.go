package assistant

import (
	"errors"
	"strings"
	"time"

	"github.com/go-deepseek/deepseek/request"
)

const systemPrompt = `You are a personal task, reminder and event assistant.

RULES:
1. When the user mentions a TASK or TODO with no specific time, use the add_task tool.
2. When the user asks to be reminded about something after a delay (like "remind me to stretch in 10 minutes"), use the set_reminder tool.
3. When the user mentions an EVENT or appointment with a specific DATE/TIME (like "Dentist at 2pm Feb 23"), use the schedule_event tool.
4. Always confirm what you added after using a tool.

For dates, use RFC 3339 format (YYYY-MM-DDTHH:MM:SSZ). Assume the current year if none is given.`

// Tool names form the closed command set the model may choose from
const (
	toolAddTask       = "add_task"
	toolSetReminder   = "set_reminder"
	toolScheduleEvent = "schedule_event"
)

// toolDefinitions declares the three commands and their input schemas
func toolDefinitions() []request.Tool {
	return []request.Tool{
		{
			Type: "function",
			Function: &request.ToolFunction{
				Name:        toolAddTask,
				Description: "Add a task or todo item (no specific date/time)",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"task": map[string]interface{}{
							"type":        "string",
							"description": "The task description",
						},
					},
					"required": []string{"task"},
				},
			},
		},
		{
			Type: "function",
			Function: &request.ToolFunction{
				Name:        toolSetReminder,
				Description: "Set a reminder that fires after a delay in minutes",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"message": map[string]interface{}{
							"type":        "string",
							"description": "What to remind the user about",
						},
						"delay_minutes": map[string]interface{}{
							"type":        "integer",
							"description": "Minutes from now until the reminder fires (default 1)",
						},
					},
					"required": []string{"message"},
				},
			},
		},
		{
			Type: "function",
			Function: &request.ToolFunction{
				Name:        toolScheduleEvent,
				Description: "Schedule an event or appointment with a specific date and time",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"title": map[string]interface{}{
							"type":        "string",
							"description": "The event title (e.g., \"Dentist appointment\")",
						},
						"date_time": map[string]interface{}{
							"type":        "string",
							"description": "The date and time in RFC 3339 format (e.g., \"2026-02-23T14:00:00Z\")",
						},
					},
					"required": []string{"title", "date_time"},
				},
			},
		},
	}
}

// Typed argument structs for the closed command set. Model output is
// untrusted input: every command is unmarshalled and validated before it
// touches the executor.

type addTaskArgs struct {
	Task string `json:"task"`
}

func (a addTaskArgs) validate() error {
	if strings.TrimSpace(a.Task) == "" {
		return errors.New("task must not be empty")
	}
	return nil
}

type setReminderArgs struct {
	Message      string `json:"message"`
	DelayMinutes int    `json:"delay_minutes"`
}

func (a setReminderArgs) validate() error {
	if strings.TrimSpace(a.Message) == "" {
		return errors.New("message must not be empty")
	}
	if a.DelayMinutes < 0 {
		return errors.New("delay_minutes must not be negative")
	}
	return nil
}

type scheduleEventArgs struct {
	Title    string `json:"title"`
	DateTime string `json:"date_time"`
}

func (a scheduleEventArgs) validate() (time.Time, error) {
	if strings.TrimSpace(a.Title) == "" {
		return time.Time{}, errors.New("title must not be empty")
	}
	when, err := time.Parse(time.RFC3339, a.DateTime)
	if err != nil {
		return time.Time{}, errors.New("date_time must be a valid RFC 3339 timestamp")
	}
	return when, nil
}
