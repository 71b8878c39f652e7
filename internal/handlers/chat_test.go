package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"dayplan/internal/llm"
	"dayplan/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider plays back canned model responses in order
type scriptedProvider struct {
	responses []*llm.MessageResponse
	requests  []llm.MessageRequest
}

func (p *scriptedProvider) SendMessage(ctx context.Context, req llm.MessageRequest) (*llm.MessageResponse, error) {
	p.requests = append(p.requests, req)
	if len(p.responses) == 0 {
		return nil, fmt.Errorf("no scripted response left")
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	return resp, nil
}

func (p *scriptedProvider) Name() string { return "scripted" }

func chatBody(content string) map[string]interface{} {
	return map[string]interface{}{
		"messages": []map[string]string{
			{"role": "user", "content": content},
		},
	}
}

func TestChatExecutesToolAndStreams(t *testing.T) {
	router, db := setupTestRouter(t)

	provider := &scriptedProvider{responses: []*llm.MessageResponse{
		{
			StopReason: "tool_calls",
			ToolCalls: []llm.ToolCall{
				{ID: "call_1", Name: "add_task", Arguments: `{"task":"buy milk"}`},
			},
		},
		{Content: "Added buy milk to your tasks.", StopReason: "stop"},
	}}
	InitChat(provider, "deepseek-chat")

	w := doRequest(t, router, http.MethodPost, "/api/chat", "alice", chatBody("add buy milk to my list"))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "tool_result")
	assert.Contains(t, body, "Added buy milk to your tasks.")

	// The command really ran, owned by the session user
	var task models.Task
	require.NoError(t, db.First(&task).Error)
	assert.Equal(t, "alice", task.Username)
	assert.Equal(t, "buy milk", task.Description)
	assert.Equal(t, models.TaskStatusIncomplete, task.Status)
}

func TestChatSetsReminderThroughTool(t *testing.T) {
	router, db := setupTestRouter(t)

	provider := &scriptedProvider{responses: []*llm.MessageResponse{
		{
			StopReason: "tool_calls",
			ToolCalls: []llm.ToolCall{
				{ID: "call_1", Name: "set_reminder", Arguments: `{"message":"stretch","delay_minutes":10}`},
			},
		},
		{Content: "Reminder set.", StopReason: "stop"},
	}}
	InitChat(provider, "deepseek-chat")

	w := doRequest(t, router, http.MethodPost, "/api/chat", "alice", chatBody("remind me to stretch in 10 minutes"))
	require.Equal(t, http.StatusOK, w.Code)

	var reminder models.Reminder
	require.NoError(t, db.First(&reminder).Error)
	assert.Equal(t, "alice", reminder.Username)
	assert.Equal(t, "stretch", reminder.Message)
	assert.Equal(t, 10, reminder.DelayMinutes)

	var job models.ScheduledJob
	require.NoError(t, db.First(&job).Error)
	assert.Equal(t, models.JobKindSendReminder, job.Kind)
}

func TestChatUnauthenticated(t *testing.T) {
	router, _ := setupTestRouter(t)

	provider := &scriptedProvider{}
	InitChat(provider, "deepseek-chat")

	w := doRequest(t, router, http.MethodPost, "/api/chat", "", chatBody("hello"))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, provider.requests, "the model must never be called without an authenticated user")
}

func TestChatRejectsInvalidBody(t *testing.T) {
	router, _ := setupTestRouter(t)
	InitChat(&scriptedProvider{}, "deepseek-chat")

	w := doRequest(t, router, http.MethodPost, "/api/chat", "alice", map[string]interface{}{
		"messages": []map[string]string{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatUnavailableWithoutProvider(t *testing.T) {
	router, _ := setupTestRouter(t)
	chatRouter = nil

	w := doRequest(t, router, http.MethodPost, "/api/chat", "alice", chatBody("hello"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
