package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"dayplan/internal/assistant"
	"dayplan/internal/database"
	"dayplan/internal/llm"
	"dayplan/internal/services"

	"github.com/gin-gonic/gin"
)

var chatRouter *assistant.Router

// InitChat wires the assistant router over the given model provider.
// Without it the chat endpoint answers 503.
func InitChat(provider llm.Provider, model string) {
	chatRouter = assistant.NewRouter(provider, &toolExecutor{}, model)
}

// ChatRequest is the conversation transcript sent by the frontend
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" binding:"required,min=1,dive"`
}

// ChatMessage is one turn of the conversation
type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// Chat streams the assistant's reply as server-sent events. Each event
// is either generated text or the confirmation of an executed command.
func Chat(c *gin.Context) {
	username, ok := requireUsername(c)
	if !ok {
		return
	}

	if chatRouter == nil {
		handleError(c, http.StatusServiceUnavailable, "Assistant is not configured", fmt.Errorf("chat router not initialised"))
		return
	}

	var request ChatRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleError(c, http.StatusBadRequest, "Invalid input", err)
		return
	}

	// Only role and content cross the trust boundary; tool call fields
	// from the client are ignored
	transcript := make([]llm.Message, 0, len(request.Messages))
	for _, m := range request.Messages {
		transcript = append(transcript, llm.Message{Role: m.Role, Content: m.Content})
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	streamed := false
	err := chatRouter.Respond(c.Request.Context(), username, transcript, func(ev assistant.Event) {
		streamed = true
		c.SSEvent("message", ev)
		c.Writer.Flush()
	})
	if err != nil {
		if !streamed {
			handleError(c, http.StatusInternalServerError, "Assistant request failed", err)
			return
		}
		// Headers are gone; report the failure in-stream
		c.SSEvent("error", gin.H{"error": "assistant request failed"})
		c.Writer.Flush()
		return
	}

	c.SSEvent("done", gin.H{})
	c.Writer.Flush()
}

// toolExecutor backs the assistant's commands with the same persistence
// helpers the JSON handlers use
type toolExecutor struct{}

func (e *toolExecutor) AddTask(ctx context.Context, username, task string) (string, error) {
	created, err := createTaskForUser(database.GetDB(), username, task)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Added task %d: %s", created.ID, created.Description), nil
}

func (e *toolExecutor) SetReminder(ctx context.Context, username, message string, delayMinutes int) (string, error) {
	reminder, err := createReminderForUser(database.GetDB(), services.GetDispatcher(), username, message, delayMinutes)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Reminder %d set for %s", reminder.ID, reminder.FireAt.Format(time.RFC3339)), nil
}

func (e *toolExecutor) ScheduleEvent(ctx context.Context, username, title string, dateTime time.Time) (string, error) {
	event, err := createEventForUser(database.GetDB(), services.GetDispatcher(), username, title, dateTime, 0)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Event %d scheduled: %s on %s", event.ID, event.Title, event.EventDate.Format(time.RFC3339)), nil
}
