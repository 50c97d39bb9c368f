// Package llm defines the chat-completion client the agent loop talks
// to, plus its OpenAI implementation. The loop only depends on the
// Client interface so tests can inject a scripted model.
package llm

// Message represents a chat message for the LLM.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string // set on tool-result messages
}

// Roles used in the chat transcript.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a tool invocation requested by the model. Arguments is
// the raw JSON string exactly as the model produced it; repairing it
// is the argument normalizer's job, not ours.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolSchema describes one callable tool to the model.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}
