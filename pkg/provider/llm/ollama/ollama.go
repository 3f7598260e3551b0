// Package ollama provides an LLM provider that talks to a local Ollama server
// through its native chat API (github.com/ollama/ollama/api).
//
// The native API is used instead of the OpenAI-compatible endpoint because it
// accepts a full JSON Schema in the "format" field, which constrains decoding
// to the roster or speaker-index shape.
//
// Example usage:
//
//	p, err := ollama.New("", "qwen3:30b-a3b") // connects to http://localhost:11434
//	if err != nil {
//	    log.Fatal(err)
//	}
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/MrWong99/scriptvox/pkg/provider/llm"
)

// DefaultBaseURL is the default base URL for a locally running Ollama instance.
const DefaultBaseURL = "http://localhost:11434"

// Ensure Provider implements the llm.Provider interface at compile time.
var _ llm.Provider = (*Provider)(nil)

// Provider implements llm.Provider using a local Ollama server.
// Provider is safe for concurrent use.
type Provider struct {
	client    *api.Client
	model     string
	keepAlive *api.Duration
	numCtx    int
}

// config holds optional configuration collected from functional options.
type config struct {
	timeout    time.Duration
	httpClient *http.Client
	keepAlive  time.Duration
	numCtx     int
}

// Option is a functional option for Provider.
type Option func(*config)

// WithTimeout sets a per-request HTTP timeout on the underlying HTTP client.
// A zero or negative value means no timeout (the default).
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the HTTP client used to reach the server.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		c.httpClient = hc
	}
}

// WithKeepAlive controls how long the server keeps the model loaded after a
// request. Attribution issues one request per sentence, so keeping the model
// resident avoids reload latency.
func WithKeepAlive(d time.Duration) Option {
	return func(c *config) {
		c.keepAlive = d
	}
}

// WithContextLength sets the num_ctx option. Roster extraction sends whole
// document chunks, which can exceed Ollama's small default window.
func WithContextLength(n int) Option {
	return func(c *config) {
		c.numCtx = n
	}
}

// New constructs a new Ollama Provider.
//
// baseURL is the base URL of the Ollama server. If empty, DefaultBaseURL is
// used. model must not be empty.
func New(baseURL string, model string, opts ...Option) (*Provider, error) {
	if model == "" {
		return nil, fmt.Errorf("ollama: model must not be empty")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("ollama: parse base url %q: %w", baseURL, err)
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{}
	}
	if cfg.timeout > 0 {
		hc.Timeout = cfg.timeout
	}

	p := &Provider{
		client: api.NewClient(u, hc),
		model:  model,
		numCtx: cfg.numCtx,
	}
	if cfg.keepAlive > 0 {
		p.keepAlive = &api.Duration{Duration: cfg.keepAlive}
	}
	return p, nil
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	chatReq := p.buildRequest(req)

	var final api.ChatResponse
	var content strings.Builder
	err := p.client.Chat(ctx, chatReq, func(r api.ChatResponse) error {
		content.WriteString(r.Message.Content)
		if r.Done {
			final = r
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama: chat: %w", err)
	}

	return &llm.CompletionResponse{
		Content: content.String(),
		Usage: llm.Usage{
			PromptTokens:     final.PromptEvalCount,
			CompletionTokens: final.EvalCount,
			TotalTokens:      final.PromptEvalCount + final.EvalCount,
		},
	}, nil
}

// Capabilities implements llm.Provider.
func (p *Provider) Capabilities() llm.ModelCapabilities {
	caps := llm.ModelCapabilities{
		ContextWindow:            8_192,
		MaxOutputTokens:          4_096,
		SupportsStructuredOutput: true,
	}
	if p.numCtx > 0 {
		caps.ContextWindow = p.numCtx
	}
	return caps
}

// buildRequest converts a CompletionRequest into a non-streaming chat request.
func (p *Provider) buildRequest(req llm.CompletionRequest) *api.ChatRequest {
	messages := make([]api.Message, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		messages = append(messages, api.Message{Role: m.Role, Content: m.Content})
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:     p.model,
		Messages:  messages,
		Stream:    &stream,
		KeepAlive: p.keepAlive,
	}

	options := map[string]any{}
	if req.Temperature != 0 {
		options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	if p.numCtx > 0 {
		options["num_ctx"] = p.numCtx
	}
	if len(options) > 0 {
		chatReq.Options = options
	}

	if rf := req.ResponseFormat; rf != nil && len(rf.Schema) > 0 {
		chatReq.Format = rf.Schema
	}
	return chatReq
}
