// Package llm defines the language-model backend boundary.
//
// The rest of the application treats the backend as an opaque text-completion
// oracle plus an embedding service. Any OpenAI-compatible server works
// (llama.cpp server, vLLM, OpenAI itself).
package llm

import "context"

// Message roles used across the agent pipeline.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is the canonical {role, content} record exchanged with the backend.
// All history shapes are normalized to this type at the agent boundary.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options control a single completion call.
type Options struct {
	MaxTokens   int
	Temperature float32
}

// Client is the backend boundary consumed by the agent and the retrieval
// engine. Implementations must be safe for concurrent use.
type Client interface {
	// Complete sends the ordered message list to the backend and returns the
	// assistant text. Blocking; honors ctx cancellation.
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)

	// Embed returns a dense vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
}
