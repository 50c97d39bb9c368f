package llm

import "context"

// Client is the interface the agent loop uses to reach a model.
type Client interface {
	// Chat sends the transcript and tool schemas, returning the
	// model's next message (text, tool calls, or both).
	Chat(ctx context.Context, messages []Message, tools []ToolSchema) (*Message, error)
}
