// Package structured is the inference gateway in front of an [llm.Provider].
//
// A caller describes the JSON it wants with a [Schema] and sends a [Request].
// [Generate] then
//
//  1. appends the schema text to the system prompt, so every backend sees it;
//  2. passes the schema as a native response format, which backends with
//     constrained decoding (OpenAI, Ollama) enforce;
//  3. strips reasoning blocks and markdown fences from the reply;
//  4. validates the decoded value against the schema;
//  5. unmarshals it into the target type.
//
// Failures never surface as panics or bare errors: the returned [Result]
// carries a named [Failure] so call sites can degrade deliberately.
package structured

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/MrWong99/scriptvox/pkg/provider/llm"
)

// Failure names why a structured generation did not yield a value.
type Failure string

const (
	// FailureNone means the value is valid.
	FailureNone Failure = ""

	// FailureRequest means the provider call itself failed (transport,
	// authentication, cancellation).
	FailureRequest Failure = "request_failed"

	// FailureEmpty means the model replied with no JSON at all.
	FailureEmpty Failure = "empty_response"

	// FailureMalformed means the reply was not decodable JSON.
	FailureMalformed Failure = "malformed_json"

	// FailureSchema means the reply was JSON but violated the schema.
	FailureSchema Failure = "schema_violation"
)

// Schema is a compiled JSON Schema plus the metadata the gateway needs.
// It is immutable and safe for concurrent use.
type Schema struct {
	name     string
	text     string
	wrap     string
	compiled *jsonschema.Schema
}

// NewSchema compiles text as a JSON Schema named name. When wrap is non-empty
// and a reply decodes to a non-object value, the value is wrapped as
// {wrap: value} before validation, so models that answer with a bare array
// or integer are still accepted.
func NewSchema(name, text, wrap string) (*Schema, error) {
	if name == "" {
		return nil, errors.New("structured: schema name must not be empty")
	}
	compiled, err := jsonschema.CompileString(name+".json", text)
	if err != nil {
		return nil, fmt.Errorf("structured: compile schema %q: %w", name, err)
	}
	return &Schema{name: name, text: text, wrap: wrap, compiled: compiled}, nil
}

// MustSchema is like [NewSchema] but panics on error. Intended for
// package-level schema variables.
func MustSchema(name, text, wrap string) *Schema {
	s, err := NewSchema(name, text, wrap)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Text returns the schema document.
func (s *Schema) Text() string { return s.text }

// Request is a schema-constrained completion request.
type Request struct {
	// SystemPrompt describes the task. The schema text is appended to it.
	SystemPrompt string

	// Messages are the user messages, in order.
	Messages []llm.Message

	// Temperature is forwarded to the provider. Zero means provider default.
	Temperature float64

	// MaxTokens is forwarded to the provider. Zero means provider default.
	MaxTokens int
}

// Result is the outcome of [Generate]. Exactly one of the two arms holds:
// Failure == FailureNone and Value is valid, or Failure names the reason
// and Err carries the detail.
type Result[T any] struct {
	Value   T
	Failure Failure
	Err     error

	// Raw is the model's reply as received, for logging.
	Raw string

	// Usage is the token accounting reported by the provider.
	Usage llm.Usage
}

// OK reports whether the result holds a valid value.
func (r Result[T]) OK() bool { return r.Failure == FailureNone }

// Generate sends req to p constrained by s and decodes the reply into T.
func Generate[T any](ctx context.Context, p llm.Provider, s *Schema, req Request) Result[T] {
	var res Result[T]

	resp, err := p.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: BuildSystemPrompt(req.SystemPrompt, s),
		Messages:     req.Messages,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
		ResponseFormat: &llm.ResponseFormat{
			Name:   s.name,
			Schema: json.RawMessage(s.text),
		},
	})
	if err != nil {
		res.Failure = FailureRequest
		res.Err = err
		return res
	}
	if resp == nil {
		res.Failure = FailureEmpty
		res.Err = errors.New("structured: provider returned no response")
		return res
	}
	res.Raw = resp.Content
	res.Usage = resp.Usage

	value, failure, err := Decode[T](s, resp.Content)
	res.Value = value
	res.Failure = failure
	res.Err = err
	return res
}

// Decode validates content against s and unmarshals it into T. It is the
// parsing half of [Generate], exposed for replies obtained elsewhere.
func Decode[T any](s *Schema, content string) (T, Failure, error) {
	var zero T

	cleaned := Clean(content)
	if cleaned == "" {
		return zero, FailureEmpty, errors.New("structured: empty reply")
	}

	dec := json.NewDecoder(strings.NewReader(cleaned))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return zero, FailureMalformed, fmt.Errorf("structured: decode %s reply: %w", s.name, err)
	}
	if s.wrap != "" {
		if _, isObject := v.(map[string]any); !isObject {
			v = map[string]any{s.wrap: v}
		}
	}

	if err := s.compiled.Validate(v); err != nil {
		return zero, FailureSchema, fmt.Errorf("structured: validate %s reply: %w", s.name, err)
	}

	normalised, err := json.Marshal(v)
	if err != nil {
		return zero, FailureMalformed, fmt.Errorf("structured: re-encode %s reply: %w", s.name, err)
	}
	var out T
	if err := json.Unmarshal(normalised, &out); err != nil {
		return zero, FailureMalformed, fmt.Errorf("structured: unmarshal %s reply: %w", s.name, err)
	}
	return out, FailureNone, nil
}

// BuildSystemPrompt appends the schema document to instruction.
func BuildSystemPrompt(instruction string, s *Schema) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(instruction, "\n"))
	sb.WriteString("\n\nJSON Schema:\n")
	sb.WriteString(s.text)
	return sb.String()
}

// Clean removes a leading <think>...</think> reasoning block and optional
// markdown code fences that some models wrap around JSON output.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<think>") {
		if _, after, ok := strings.Cut(s, "</think>"); ok {
			s = strings.TrimSpace(after)
		}
	}
	for _, prefix := range []string{"```json", "```"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
			break
		}
	}
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}
