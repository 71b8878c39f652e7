package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"dayplan/internal/llm"
)

// maxToolRounds bounds how many tool-calling rounds a single chat turn
// may take before the loop stops and returns whatever text accumulated
const maxToolRounds = 3

// Event is one unit of streamed assistant output
type Event struct {
	Type    string `json:"type"` // "text" or "tool_result"
	Tool    string `json:"tool,omitempty"`
	Content string `json:"content"`
}

// Executor performs the mutations behind the assistant's commands. The
// owning username always comes from the authenticated session, never
// from the model.
type Executor interface {
	AddTask(ctx context.Context, username, task string) (string, error)
	SetReminder(ctx context.Context, username, message string, delayMinutes int) (string, error)
	ScheduleEvent(ctx context.Context, username, title string, dateTime time.Time) (string, error)
}

// Router drives the model through the bounded tool-calling loop
type Router struct {
	provider    llm.Provider
	exec        Executor
	model       string
	maxTokens   int
	temperature float64
}

// NewRouter creates a router over the given provider and executor
func NewRouter(provider llm.Provider, exec Executor, model string) *Router {
	if model == "" {
		model = "deepseek-chat"
	}
	return &Router{
		provider:    provider,
		exec:        exec,
		model:       model,
		maxTokens:   1024,
		temperature: 0.2,
	}
}

// Respond runs the tool loop over the transcript, calling emit for each
// piece of output as it is produced: send transcript → if tool_calls,
// validate + execute, append results, re-send → until a text-only reply
// or the round budget runs out.
func (r *Router) Respond(ctx context.Context, username string, transcript []llm.Message, emit func(Event)) error {
	messages := append([]llm.Message{}, transcript...)

	for round := 0; round <= maxToolRounds; round++ {
		req := llm.MessageRequest{
			Messages:    messages,
			System:      systemPrompt,
			Model:       r.model,
			MaxTokens:   r.maxTokens,
			Temperature: r.temperature,
		}
		// Withhold tools on the final round so the model must answer in text
		if round < maxToolRounds {
			req.Tools = toolDefinitions()
		}

		resp, err := r.provider.SendMessage(ctx, req)
		if err != nil {
			return fmt.Errorf("model request failed (round %d): %w", round, err)
		}

		if resp.Content != "" {
			emit(Event{Type: "text", Content: resp.Content})
		}

		// No tool calls means this was the final answer
		if len(resp.ToolCalls) == 0 {
			return nil
		}

		messages = append(messages, llm.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, tc := range resp.ToolCalls {
			result := r.dispatch(ctx, username, tc)
			emit(Event{Type: "tool_result", Tool: tc.Name, Content: result})
			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    result,
				ToolCallID: tc.ID,
			})
		}
	}

	return nil
}

// dispatch validates and executes one model-chosen command. Any failure
// becomes a failed tool result fed back to the model, never an aborted
// stream.
func (r *Router) dispatch(ctx context.Context, username string, tc llm.ToolCall) string {
	confirmation, err := r.execute(ctx, username, tc)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return confirmation
}

func (r *Router) execute(ctx context.Context, username string, tc llm.ToolCall) (string, error) {
	switch tc.Name {
	case toolAddTask:
		var args addTaskArgs
		if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
			return "", fmt.Errorf("invalid add_task arguments: %w", err)
		}
		if err := args.validate(); err != nil {
			return "", err
		}
		return r.exec.AddTask(ctx, username, strings.TrimSpace(args.Task))

	case toolSetReminder:
		var args setReminderArgs
		if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
			return "", fmt.Errorf("invalid set_reminder arguments: %w", err)
		}
		if err := args.validate(); err != nil {
			return "", err
		}
		if args.DelayMinutes == 0 {
			args.DelayMinutes = 1
		}
		return r.exec.SetReminder(ctx, username, strings.TrimSpace(args.Message), args.DelayMinutes)

	case toolScheduleEvent:
		var args scheduleEventArgs
		if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
			return "", fmt.Errorf("invalid schedule_event arguments: %w", err)
		}
		when, err := args.validate()
		if err != nil {
			return "", err
		}
		return r.exec.ScheduleEvent(ctx, username, strings.TrimSpace(args.Title), when)

	default:
		return "", fmt.Errorf("unknown tool %q", tc.Name)
	}
}
