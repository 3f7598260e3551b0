package structured_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MrWong99/scriptvox/pkg/provider/llm"
	"github.com/MrWong99/scriptvox/pkg/provider/llm/mock"
	"github.com/MrWong99/scriptvox/pkg/provider/llm/structured"
)

const indexSchema = `{
  "type": "object",
  "properties": {"index": {"type": "integer"}},
  "required": ["index"]
}`

type indexReply struct {
	Index int `json:"index"`
}

func TestGenerate_Success(t *testing.T) {
	t.Parallel()

	s := structured.MustSchema("index", indexSchema, "index")
	p := &mock.Provider{CompleteResponse: &llm.CompletionResponse{
		Content: `{"index": 2}`,
		Usage:   llm.Usage{TotalTokens: 9},
	}}

	res := structured.Generate[indexReply](context.Background(), p, s, structured.Request{
		SystemPrompt: "pick a speaker",
		Messages:     []llm.Message{llm.UserMessage("「やあ」")},
		Temperature:  0.1,
	})
	if !res.OK() {
		t.Fatalf("Generate: failure %q: %v", res.Failure, res.Err)
	}
	if res.Value.Index != 2 {
		t.Errorf("Index = %d, want 2", res.Value.Index)
	}
	if res.Usage.TotalTokens != 9 {
		t.Errorf("Usage.TotalTokens = %d, want 9", res.Usage.TotalTokens)
	}

	calls := p.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	req := calls[0].Req
	if !strings.HasPrefix(req.SystemPrompt, "pick a speaker") {
		t.Errorf("system prompt lost the instruction: %q", req.SystemPrompt)
	}
	if !strings.Contains(req.SystemPrompt, `"index"`) {
		t.Errorf("system prompt missing schema text: %q", req.SystemPrompt)
	}
	if req.ResponseFormat == nil || req.ResponseFormat.Name != "index" {
		t.Errorf("ResponseFormat = %+v, want name %q", req.ResponseFormat, "index")
	}
	if req.Temperature != 0.1 {
		t.Errorf("Temperature = %v, want 0.1", req.Temperature)
	}
}

func TestGenerate_Failures(t *testing.T) {
	t.Parallel()

	s := structured.MustSchema("index", indexSchema, "index")

	tests := []struct {
		name    string
		content string
		err     error
		want    structured.Failure
	}{
		{name: "transport error", err: errors.New("connection refused"), want: structured.FailureRequest},
		{name: "empty reply", content: "   ", want: structured.FailureEmpty},
		{name: "only fences", content: "```json\n```", want: structured.FailureEmpty},
		{name: "prose", content: "I think it is the narrator.", want: structured.FailureMalformed},
		{name: "wrong type", content: `{"index": "two"}`, want: structured.FailureSchema},
		{name: "missing field", content: `{"speaker": 1}`, want: structured.FailureSchema},
		{name: "fractional", content: `{"index": 1.5}`, want: structured.FailureSchema},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := &mock.Provider{CompleteErr: tc.err}
			if tc.err == nil {
				p.CompleteResponse = &llm.CompletionResponse{Content: tc.content}
			}
			res := structured.Generate[indexReply](context.Background(), p, s, structured.Request{})
			if res.Failure != tc.want {
				t.Errorf("Failure = %q, want %q (err: %v)", res.Failure, tc.want, res.Err)
			}
			if res.Err == nil {
				t.Error("expected non-nil Err")
			}
			if res.OK() {
				t.Error("OK() = true for failed result")
			}
		})
	}
}

func TestGenerate_NilResponse(t *testing.T) {
	t.Parallel()

	s := structured.MustSchema("index", indexSchema, "index")
	res := structured.Generate[indexReply](context.Background(), &mock.Provider{}, s, structured.Request{})
	if res.Failure != structured.FailureEmpty {
		t.Errorf("Failure = %q, want %q", res.Failure, structured.FailureEmpty)
	}
}

func TestDecode_WrapsBareValues(t *testing.T) {
	t.Parallel()

	s := structured.MustSchema("index", indexSchema, "index")
	got, failure, err := structured.Decode[indexReply](s, "3")
	if failure != structured.FailureNone {
		t.Fatalf("Decode: failure %q: %v", failure, err)
	}
	if got.Index != 3 {
		t.Errorf("Index = %d, want 3", got.Index)
	}
}

func TestDecode_WithoutWrapRejectsBareValues(t *testing.T) {
	t.Parallel()

	s := structured.MustSchema("index", indexSchema, "")
	_, failure, _ := structured.Decode[indexReply](s, "3")
	if failure != structured.FailureSchema {
		t.Errorf("failure = %q, want %q", failure, structured.FailureSchema)
	}
}

func TestDecode_ArrayWrapped(t *testing.T) {
	t.Parallel()

	const listSchema = `{
  "type": "object",
  "properties": {
    "items": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["items"]
}`
	type list struct {
		Items []string `json:"items"`
	}

	s := structured.MustSchema("list", listSchema, "items")
	got, failure, err := structured.Decode[list](s, "```json\n[\"a\", \"b\"]\n```")
	if failure != structured.FailureNone {
		t.Fatalf("Decode: failure %q: %v", failure, err)
	}
	if len(got.Items) != 2 || got.Items[0] != "a" || got.Items[1] != "b" {
		t.Errorf("Items = %v, want [a b]", got.Items)
	}
}

func TestClean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "think block", in: "<think>hmm, index one</think>\n{\"a\":1}", want: `{"a":1}`},
		{name: "unterminated think", in: "<think>still going", want: "<think>still going"},
		{name: "whitespace", in: "  \n{\"a\":1}\n ", want: `{"a":1}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := structured.Clean(tc.in); got != tc.want {
				t.Errorf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNewSchema_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := structured.NewSchema("", indexSchema, ""); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := structured.NewSchema("broken", `{"type": `, ""); err == nil {
		t.Error("expected error for malformed schema")
	}
}
