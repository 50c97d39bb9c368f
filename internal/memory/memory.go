// Package memory bounds each user's conversation history to a fixed
// recent window for prompt context, backed by one JSON document per
// user.
//
// The persisted record holds the full capped history plus a tool-call
// audit trail; only the trailing window is ever shown to the agent.
// Saves replace the trailing window rather than appending, so replaying
// the same window twice never duplicates messages.
package memory

import (
	"log/slog"
	"time"

	"github.com/gatherhq/gather/internal/storage"
)

// Roles for conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversational turn entry.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// ToolCall records one executed tool invocation for the audit trail.
type ToolCall struct {
	Tool      string            `json:"tool"`
	Args      map[string]string `json:"args,omitempty"`
	Result    string            `json:"result"`
	Timestamp string            `json:"timestamp"`
}

// record is the persisted per-user document.
type record struct {
	Messages    []Message  `json:"messages"`
	ToolCalls   []ToolCall `json:"tool_calls"`
	LastUpdated string     `json:"last_updated"`
}

// Store manages per-user conversation records.
type Store struct {
	dir          *storage.Dir
	windowSize   int
	maxMessages  int
	maxToolCalls int
	logger       *slog.Logger
	now          func() time.Time
}

// NewStore creates a memory store. windowSize bounds what Load
// returns; maxMessages and maxToolCalls cap the persisted record.
func NewStore(dir *storage.Dir, windowSize, maxMessages, maxToolCalls int, logger *slog.Logger) *Store {
	if windowSize <= 0 {
		windowSize = 20
	}
	if maxMessages <= 0 {
		maxMessages = 100
	}
	if maxToolCalls <= 0 {
		maxToolCalls = 200
	}
	return &Store{
		dir:          dir,
		windowSize:   windowSize,
		maxMessages:  maxMessages,
		maxToolCalls: maxToolCalls,
		logger:       logger,
		now:          time.Now,
	}
}

// WindowSize returns the configured prompt-context window size.
func (s *Store) WindowSize() int {
	return s.windowSize
}

func (s *Store) path(userID string) string {
	return s.dir.UserPath(userID, "conversations.json")
}

func (s *Store) load(userID string) record {
	var r record
	if !s.dir.LoadJSON(s.path(userID), &r) {
		// Missing or corrupt store is an empty store, never fatal.
		return record{}
	}
	return r
}

// Load returns the most recent windowSize messages for a user in
// chronological order.
func (s *Store) Load(userID string) []Message {
	msgs := s.load(userID).Messages
	if len(msgs) > s.windowSize {
		msgs = msgs[len(msgs)-s.windowSize:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Save merges the freshly observed window into the durable record.
// The previous trailing windowSize entries are replaced by window —
// the loop re-saves everything it loaded plus the new turn, so
// replacement rather than append keeps the history duplicate-free.
// The whole record is then truncated to the configured caps.
func (s *Store) Save(userID string, window []Message, toolCalls []ToolCall) error {
	r := s.load(userID)

	if len(r.Messages) >= s.windowSize {
		r.Messages = append(r.Messages[:len(r.Messages)-s.windowSize], window...)
	} else {
		r.Messages = append([]Message(nil), window...)
	}
	if len(r.Messages) > s.maxMessages {
		r.Messages = r.Messages[len(r.Messages)-s.maxMessages:]
	}

	r.ToolCalls = append(r.ToolCalls, toolCalls...)
	if len(r.ToolCalls) > s.maxToolCalls {
		r.ToolCalls = r.ToolCalls[len(r.ToolCalls)-s.maxToolCalls:]
	}

	r.LastUpdated = s.now().Format(time.RFC3339)

	if err := s.dir.SaveJSON(s.path(userID), r); err != nil {
		return err
	}
	s.logger.Debug("memory saved",
		"user", userID, "messages", len(r.Messages), "tool_calls", len(r.ToolCalls))
	return nil
}

// Clear resets a user's conversation record to empty.
func (s *Store) Clear(userID string) error {
	return s.dir.SaveJSON(s.path(userID), record{
		Messages:    []Message{},
		ToolCalls:   []ToolCall{},
		LastUpdated: s.now().Format(time.RFC3339),
	})
}

// Stamp returns a message timestamped now. Helper for callers
// appending fresh turns.
func (s *Store) Stamp(role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: s.now().Format(time.RFC3339)}
}
