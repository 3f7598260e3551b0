// Package llm defines the Provider interface for Large Language Model backends.
//
// An LLM provider wraps a remote or local model API (e.g., OpenAI, Anthropic,
// or a local Ollama instance) and exposes a uniform, non-streaming completion
// interface to the roster extractor and the attribution engine. Both callers
// ask for JSON conforming to a schema; providers that can constrain decoding
// natively receive the schema through [ResponseFormat], the others rely on the
// schema text embedded in the system prompt.
//
// Implementors must be safe for concurrent use.
package llm

import (
	"context"
	"encoding/json"
)

// Usage holds token accounting information returned by the LLM backend.
// All counts are in the model's native token unit and may differ between providers
// for the same textual content.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the input messages and
	// system prompt.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the response.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int
}

// ResponseFormat asks the backend to constrain its output to a JSON Schema.
type ResponseFormat struct {
	// Name identifies the schema. Some backends (OpenAI) require it.
	Name string

	// Schema is the JSON Schema document the response must satisfy.
	Schema json.RawMessage
}

// CompletionRequest carries everything the LLM needs to produce a response.
// Callers should treat a zero-value request as invalid; at minimum Messages must
// be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation. The last message is typically from
	// the "user" role and drives the response.
	Messages []Message

	// Temperature controls output randomness in the range [0.0, 2.0]. Zero means
	// the provider default.
	Temperature float64

	// MaxTokens caps the number of completion tokens the model may generate.
	// Zero means use the provider default.
	MaxTokens int

	// SystemPrompt is an optional high-priority instruction injected before the
	// conversation. Providers without a dedicated field prepend it as a
	// "system"-role message.
	SystemPrompt string

	// ResponseFormat, when non-nil, requests schema-constrained JSON output.
	// Backends that cannot honour it natively ignore it.
	ResponseFormat *ResponseFormat
}

// CompletionResponse is returned by Complete.
type CompletionResponse struct {
	// Content is the full text of the assistant's reply.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any LLM backend.
//
// Implementations must be safe for concurrent use from multiple goroutines and
// must return promptly when ctx is cancelled.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	//
	// Returns an error if the request fails or if ctx is cancelled before
	// the completion arrives. A response whose content does not match the
	// requested schema is not an error at this layer.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Capabilities returns static metadata describing what the underlying model
	// supports. The result is constant for the lifetime of the Provider.
	Capabilities() ModelCapabilities
}
