package llm

// Message represents a single message in an LLM conversation.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}

// ModelCapabilities describes what an LLM model supports.
type ModelCapabilities struct {
	// ContextWindow is the maximum token count for input + output.
	ContextWindow int

	// MaxOutputTokens is the maximum tokens the model can generate in one completion.
	MaxOutputTokens int

	// SupportsStructuredOutput indicates the backend constrains decoding to a
	// JSON Schema when [CompletionRequest.ResponseFormat] is set.
	SupportsStructuredOutput bool
}

// UserMessage is shorthand for a "user"-role [Message].
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}
