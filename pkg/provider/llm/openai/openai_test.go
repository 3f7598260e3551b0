package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrWong99/scriptvox/pkg/provider/llm"
)

// TestConvertMessage checks role mapping onto SDK unions.
func TestConvertMessage(t *testing.T) {
	t.Parallel()

	sys, err := convertMessage(llm.Message{Role: "system", Content: "s"})
	if err != nil || sys.OfSystem == nil {
		t.Fatalf("system: OfSystem not set (err=%v)", err)
	}
	usr, err := convertMessage(llm.Message{Role: "user", Content: "u"})
	if err != nil || usr.OfUser == nil {
		t.Fatalf("user: OfUser not set (err=%v)", err)
	}
	asst, err := convertMessage(llm.Message{Role: "assistant", Content: "a"})
	if err != nil || asst.OfAssistant == nil {
		t.Fatalf("assistant: OfAssistant not set (err=%v)", err)
	}
	if _, err := convertMessage(llm.Message{Role: "tool", Content: "x"}); err == nil {
		t.Fatal("expected error for unsupported role")
	}
}

// TestBuildParams_ResponseFormat checks that a schema becomes a json_schema
// response format.
func TestBuildParams_ResponseFormat(t *testing.T) {
	t.Parallel()

	p := &Provider{model: "gpt-4o-mini"}
	params, err := p.buildParams(llm.CompletionRequest{
		Messages: []llm.Message{llm.UserMessage("hi")},
		ResponseFormat: &llm.ResponseFormat{
			Name:   "speaker_index",
			Schema: json.RawMessage(`{"type":"object","properties":{"index":{"type":"integer"}}}`),
		},
	})
	if err != nil {
		t.Fatalf("buildParams: unexpected error: %v", err)
	}
	js := params.ResponseFormat.OfJSONSchema
	if js == nil {
		t.Fatal("expected OfJSONSchema to be set")
	}
	if js.JSONSchema.Name != "speaker_index" {
		t.Errorf("schema name: got %q", js.JSONSchema.Name)
	}
}

// TestBuildParams_InvalidSchema checks that an undecodable schema is rejected.
func TestBuildParams_InvalidSchema(t *testing.T) {
	t.Parallel()

	p := &Provider{model: "gpt-4o"}
	_, err := p.buildParams(llm.CompletionRequest{
		Messages:       []llm.Message{llm.UserMessage("hi")},
		ResponseFormat: &llm.ResponseFormat{Name: "x", Schema: json.RawMessage(`{not json`)},
	})
	if err == nil {
		t.Fatal("expected error for invalid schema")
	}
}

// TestComplete_AgainstServer exercises the full request path against an
// httptest server speaking the chat completions protocol.
func TestComplete_AgainstServer(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 0,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"index\":2}"}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13}
		}`)
	}))
	t.Cleanup(srv.Close)

	p, err := New("sk-test", "gpt-4o-mini", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}

	resp, err := p.Complete(context.Background(), llm.CompletionRequest{
		SystemPrompt: "pick a speaker",
		Messages:     []llm.Message{llm.UserMessage("「こんにちは」")},
		ResponseFormat: &llm.ResponseFormat{
			Name:   "speaker_index",
			Schema: json.RawMessage(`{"type":"object"}`),
		},
	})
	if err != nil {
		t.Fatalf("Complete: unexpected error: %v", err)
	}
	if resp.Content != `{"index":2}` {
		t.Errorf("content: got %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 13 {
		t.Errorf("total tokens: got %d, want 13", resp.Usage.TotalTokens)
	}
	if _, ok := gotBody["response_format"]; !ok {
		t.Error("request body missing response_format")
	}
	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Errorf("expected system + user messages, got %d", len(msgs))
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New("", "gpt-4o"); err == nil {
		t.Error("expected error for empty API key")
	}
	if _, err := New("sk-test", ""); err == nil {
		t.Error("expected error for empty model")
	}
	if _, err := New("sk-test", "gpt-4o", WithBaseURL("https://custom.example.com"), WithOrganization("org-1")); err != nil {
		t.Errorf("unexpected error with valid options: %v", err)
	}
}

func TestModelCapabilities(t *testing.T) {
	t.Parallel()

	if !modelCapabilities("gpt-4o").SupportsStructuredOutput {
		t.Error("gpt-4o should support structured output")
	}
	if modelCapabilities("gpt-3.5-turbo").SupportsStructuredOutput {
		t.Error("gpt-3.5-turbo should not claim structured output")
	}
}
