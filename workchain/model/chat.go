// Package model provides the LLM chat interface consumed by
// workchain/launch's ChatProcess, and the provider adapters that
// implement it (anthropic, openai, google subpackages).
package model

import "context"

// ChatModel abstracts a single provider's chat completion call behind a
// uniform request/response shape, so a ChatProcess can be launched
// against any of them interchangeably.
type ChatModel interface {
	Chat(ctx context.Context, messages []Message, tools []ToolSpec) (ChatOut, error)
}

// Message is one turn in a conversation.
type Message struct {
	Role    string
	Content string
}

// Standard roles, shared across providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ToolSpec describes a tool the model may call, in JSON-Schema terms.
type ToolSpec struct {
	Name        string
	Description string
	Schema      map[string]interface{}
}

// ChatOut is a provider's response: generated text, requested tool
// calls, or both.
type ChatOut struct {
	Text      string
	ToolCalls []ToolCall
}

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	Name  string
	Input map[string]interface{}
}
