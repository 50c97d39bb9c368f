// Package agent implements the turn loop: one user message in, one
// final answer out, with a bounded run of tool calls in between.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gatherhq/gather/internal/llm"
	"github.com/gatherhq/gather/internal/memory"
	"github.com/gatherhq/gather/internal/tools"
)

// Fixed user-facing messages for exceeded turn budgets. The two causes
// get distinct wording so users can tell a slow backend from a model
// that is going in circles.
const (
	timeoutApology   = "Sorry, that took too long to work out and I had to stop. Please try again."
	iterationApology = "Sorry, I could not finish that request in a reasonable number of steps. Could you rephrase or simplify it?"
)

// Loop drives turns for all users. Per-user state is limited to the
// durable conversation store and the pending-confirmation slot; turns
// for the same user are not expected to run concurrently.
type Loop struct {
	logger        *slog.Logger
	client        llm.Client
	registry      *tools.Registry
	store         *memory.Store
	maxIterations int
	turnTimeout   time.Duration
	now           func() time.Time

	// pending holds calendar mutations parked until the user approves
	// them. Calendar-mutating tools never execute without this
	// handshake.
	pending map[string]*llm.ToolCall
}

// NewLoop creates a turn loop.
func NewLoop(logger *slog.Logger, client llm.Client, registry *tools.Registry, store *memory.Store, maxIterations int, turnTimeout time.Duration) *Loop {
	if maxIterations <= 0 {
		maxIterations = 10
	}
	if turnTimeout <= 0 {
		turnTimeout = 2 * time.Minute
	}
	return &Loop{
		logger:        logger,
		client:        client,
		registry:      registry,
		store:         store,
		maxIterations: maxIterations,
		turnTimeout:   turnTimeout,
		now:           time.Now,
		pending:       make(map[string]*llm.ToolCall),
	}
}

// SetNow overrides the reference clock for tests.
func (l *Loop) SetNow(now func() time.Time) {
	l.now = now
}

// HasPending reports whether a calendar mutation is awaiting the
// user's approval.
func (l *Loop) HasPending(userID string) bool {
	return l.pending[userID] != nil
}

// Run executes one turn for a user and returns the final answer.
// Budget violations and tool failures come back as ordinary text; an
// error return means the model itself was unreachable.
func (l *Loop) Run(ctx context.Context, userID, userInput string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.turnTimeout)
	defer cancel()

	l.logger.Info("turn started", "user", userID)

	history := l.store.Load(userID)
	userMsg := l.store.Stamp(memory.RoleUser, userInput)

	// A parked calendar mutation intercepts the next message: an
	// affirmative reply executes it, anything else discards it and
	// the turn proceeds normally.
	if parked := l.pending[userID]; parked != nil {
		delete(l.pending, userID)
		if isAffirmative(userInput) {
			result, err := l.registry.Execute(ctx, parked.Name, parked.Arguments)
			if err != nil {
				result = fmt.Sprintf("Could not complete the confirmed action: %s", err)
			}
			l.finishTurn(userID, history, userMsg, result, []memory.ToolCall{{
				Tool:      parked.Name,
				Result:    result,
				Timestamp: l.now().Format(time.RFC3339),
			}})
			return result, nil
		}
		l.logger.Info("pending action discarded", "user", userID, "tool", parked.Name)
	}

	messages := l.assemble(history, userInput)
	schemas := l.registry.Schemas()

	var audit []memory.ToolCall
	for iteration := 0; iteration < l.maxIterations; iteration++ {
		resp, err := l.client.Chat(ctx, messages, schemas)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				l.logger.Warn("turn timed out", "user", userID, "iteration", iteration)
				l.finishTurn(userID, history, userMsg, timeoutApology, audit)
				return timeoutApology, nil
			}
			return "", fmt.Errorf("model call failed: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			answer := resp.Content
			if answer == "" {
				answer = "I'm not sure how to help with that."
			}
			l.finishTurn(userID, history, userMsg, answer, audit)
			l.logger.Info("turn completed", "user", userID, "iterations", iteration+1, "tool_calls", len(audit))
			return answer, nil
		}

		messages = append(messages, *resp)
		for _, call := range resp.ToolCalls {
			if tool := l.registry.Get(call.Name); tool != nil && tool.RequiresConfirmation {
				parked := call
				l.pending[userID] = &parked
				question := confirmationPrompt(call)
				l.finishTurn(userID, history, userMsg, question, audit)
				l.logger.Info("calendar mutation parked for confirmation", "user", userID, "tool", call.Name)
				return question, nil
			}

			result, err := l.registry.Execute(ctx, call.Name, call.Arguments)
			if err != nil {
				result = fmt.Sprintf("Tool failed: %s", err)
			}
			audit = append(audit, memory.ToolCall{
				Tool:      call.Name,
				Result:    result,
				Timestamp: l.now().Format(time.RFC3339),
			})
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	l.logger.Warn("turn hit iteration ceiling", "user", userID, "iterations", l.maxIterations)
	l.finishTurn(userID, history, userMsg, iterationApology, audit)
	return iterationApology, nil
}

// assemble builds the model transcript: system prompt, the stored
// window, then the fresh user message.
func (l *Loop) assemble(history []memory.Message, userInput string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{
		Role: llm.RoleSystem,
		Content: fmt.Sprintf(
			"You are Gather, a scheduling assistant. You coordinate calendar events, "+
				"check weather, and trigger automations using the available tools. "+
				"Today is %s. Use parse_date to resolve natural-language dates before "+
				"calling calendar tools. Never create a calendar event unless the user "+
				"has explicitly confirmed the details.",
			l.now().Format("Monday, January 2, 2006"),
		),
	})
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userInput})
	return messages
}

// finishTurn persists the turn: the observed window (history plus the
// new exchange, trimmed to window size) replaces the stored trailing
// window, and executed tool calls join the audit trail. Persistence
// failures are logged, never surfaced — losing a history entry must
// not break the answer.
func (l *Loop) finishTurn(userID string, history []memory.Message, userMsg memory.Message, answer string, audit []memory.ToolCall) {
	combined := make([]memory.Message, 0, len(history)+2)
	combined = append(combined, history...)
	combined = append(combined, userMsg, l.store.Stamp(memory.RoleAssistant, answer))
	if n := l.store.WindowSize(); len(combined) > n {
		combined = combined[len(combined)-n:]
	}

	if err := l.store.Save(userID, combined, audit); err != nil {
		l.logger.Error("failed to persist conversation", "user", userID, "error", err)
	}
}

// confirmationPrompt renders a parked event creation as a question for
// the user.
func confirmationPrompt(call llm.ToolCall) string {
	var args map[string]any
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		return "I'd like to create a calendar event but need your confirmation first. Shall I go ahead? (yes/no)"
	}

	title, _ := args["title"].(string)
	start, _ := args["start_iso"].(string)
	end, _ := args["end_iso"].(string)
	location, _ := args["location"].(string)

	var b strings.Builder
	b.WriteString("Before I put this on the calendar, please confirm: ")
	if title != "" {
		fmt.Fprintf(&b, "%q", title)
	} else {
		b.WriteString("an event")
	}
	if start != "" {
		fmt.Fprintf(&b, " from %s", start)
	}
	if end != "" {
		fmt.Fprintf(&b, " to %s", end)
	}
	if location != "" {
		fmt.Fprintf(&b, " at %s", location)
	}
	b.WriteString(". Shall I create it? (yes/no)")
	return b.String()
}

// isAffirmative reports whether a reply approves the pending action.
func isAffirmative(input string) bool {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.TrimRight(s, ".!")
	switch s {
	case "y", "yes", "yep", "yeah", "sure", "ok", "okay", "confirm", "confirmed", "go ahead", "do it", "please do", "yes please":
		return true
	}
	return strings.HasPrefix(s, "yes,") || strings.HasPrefix(s, "yes ")
}
