package assistant

import (
	"context"
	"fmt"
	"testing"
	"time"

	"dayplan/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

// recordingExecutor captures every command dispatched to it
type recordingExecutor struct {
	username  string
	tasks     []string
	reminders []reminderCall
	events    []eventCall
}

type reminderCall struct {
	message string
	delay   int
}

type eventCall struct {
	title string
	when  time.Time
}

func (e *recordingExecutor) AddTask(ctx context.Context, username, task string) (string, error) {
	e.username = username
	e.tasks = append(e.tasks, task)
	return "Added task: " + task, nil
}

func (e *recordingExecutor) SetReminder(ctx context.Context, username, message string, delayMinutes int) (string, error) {
	e.username = username
	e.reminders = append(e.reminders, reminderCall{message, delayMinutes})
	return "Reminder set", nil
}

func (e *recordingExecutor) ScheduleEvent(ctx context.Context, username, title string, dateTime time.Time) (string, error) {
	e.username = username
	e.events = append(e.events, eventCall{title, dateTime})
	return "Event scheduled", nil
}

func userTurn(content string) []llm.Message {
	return []llm.Message{{Role: "user", Content: content}}
}

func collectEvents(t *testing.T, r *Router, transcript []llm.Message) []Event {
	t.Helper()
	var events []Event
	err := r.Respond(context.Background(), "alice", transcript, func(ev Event) {
		events = append(events, ev)
	})
	require.NoError(t, err)
	return events
}

func TestRespondExecutesToolThenAnswers(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.MessageResponse{
		{StopReason: "tool_calls", ToolCalls: []llm.ToolCall{
			{ID: "call_1", Name: "add_task", Arguments: `{"task":"buy milk"}`},
		}},
		{Content: "Added buy milk to your list.", StopReason: "stop"},
	}}
	exec := &recordingExecutor{}
	r := NewRouter(provider, exec, "")

	events := collectEvents(t, r, userTurn("add buy milk"))

	require.Equal(t, []string{"buy milk"}, exec.tasks)
	assert.Equal(t, "alice", exec.username, "username must come from the session, not the model")

	require.Len(t, events, 2)
	assert.Equal(t, "tool_result", events[0].Type)
	assert.Equal(t, "add_task", events[0].Tool)
	assert.Equal(t, "Added task: buy milk", events[0].Content)
	assert.Equal(t, "text", events[1].Type)
	assert.Equal(t, "Added buy milk to your list.", events[1].Content)

	// The tool result is fed back to the model as a tool-role message
	require.Len(t, provider.requests, 2)
	last := provider.requests[1].Messages[len(provider.requests[1].Messages)-1]
	assert.Equal(t, "tool", last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
}

func TestRespondSchedulesEvent(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.MessageResponse{
		{StopReason: "tool_calls", ToolCalls: []llm.ToolCall{
			{ID: "call_1", Name: "schedule_event", Arguments: `{"title":"Dentist","date_time":"2026-02-23T14:00:00Z"}`},
		}},
		{Content: "Scheduled.", StopReason: "stop"},
	}}
	exec := &recordingExecutor{}
	r := NewRouter(provider, exec, "")

	collectEvents(t, r, userTurn("dentist at 2pm feb 23"))

	require.Len(t, exec.events, 1)
	assert.Equal(t, "Dentist", exec.events[0].title)
	assert.Equal(t, time.Date(2026, 2, 23, 14, 0, 0, 0, time.UTC), exec.events[0].when)
}

func TestInvalidDateBecomesToolError(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.MessageResponse{
		{StopReason: "tool_calls", ToolCalls: []llm.ToolCall{
			{ID: "call_1", Name: "schedule_event", Arguments: `{"title":"Dentist","date_time":"tomorrow-ish"}`},
		}},
		{Content: "Sorry, I need an exact time.", StopReason: "stop"},
	}}
	exec := &recordingExecutor{}
	r := NewRouter(provider, exec, "")

	events := collectEvents(t, r, userTurn("dentist tomorrow-ish"))

	assert.Empty(t, exec.events, "invalid arguments must never reach the executor")
	require.Len(t, events, 2)
	assert.Equal(t, "tool_result", events[0].Type)
	assert.Contains(t, events[0].Content, "Error:")
	assert.Equal(t, "Sorry, I need an exact time.", events[1].Content)
}

func TestReminderDelayDefaultsToOne(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.MessageResponse{
		{StopReason: "tool_calls", ToolCalls: []llm.ToolCall{
			{ID: "call_1", Name: "set_reminder", Arguments: `{"message":"stretch"}`},
		}},
		{Content: "Done.", StopReason: "stop"},
	}}
	exec := &recordingExecutor{}
	r := NewRouter(provider, exec, "")

	collectEvents(t, r, userTurn("remind me to stretch"))

	require.Len(t, exec.reminders, 1)
	assert.Equal(t, "stretch", exec.reminders[0].message)
	assert.Equal(t, 1, exec.reminders[0].delay)
}

func TestUnknownToolRejected(t *testing.T) {
	provider := &scriptedProvider{responses: []*llm.MessageResponse{
		{StopReason: "tool_calls", ToolCalls: []llm.ToolCall{
			{ID: "call_1", Name: "drop_database", Arguments: `{}`},
		}},
		{Content: "I can't do that.", StopReason: "stop"},
	}}
	exec := &recordingExecutor{}
	r := NewRouter(provider, exec, "")

	events := collectEvents(t, r, userTurn("do something weird"))

	require.Len(t, events, 2)
	assert.Equal(t, "tool_result", events[0].Type)
	assert.Contains(t, events[0].Content, "unknown tool")
	assert.Empty(t, exec.tasks)
	assert.Empty(t, exec.reminders)
	assert.Empty(t, exec.events)
}

func TestFinalRoundWithholdsTools(t *testing.T) {
	toolCallResp := func(id string) *llm.MessageResponse {
		return &llm.MessageResponse{StopReason: "tool_calls", ToolCalls: []llm.ToolCall{
			{ID: id, Name: "add_task", Arguments: `{"task":"again"}`},
		}}
	}
	provider := &scriptedProvider{responses: []*llm.MessageResponse{
		toolCallResp("call_1"),
		toolCallResp("call_2"),
		toolCallResp("call_3"),
		{Content: "Stopping here.", StopReason: "stop"},
	}}
	exec := &recordingExecutor{}
	r := NewRouter(provider, exec, "")

	collectEvents(t, r, userTurn("loop forever"))

	require.Len(t, provider.requests, maxToolRounds+1)
	for i := 0; i < maxToolRounds; i++ {
		assert.NotEmpty(t, provider.requests[i].Tools, "round %d should offer tools", i)
	}
	assert.Empty(t, provider.requests[maxToolRounds].Tools, "final round must force a text answer")
}
