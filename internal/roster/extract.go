package roster

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrWong99/scriptvox/internal/observe"
	"github.com/MrWong99/scriptvox/pkg/provider/llm"
	"github.com/MrWong99/scriptvox/pkg/provider/llm/structured"
)

const extractionPrompt = "ユーザーから与えられた小説の内容から登場人物を全て抽出し、指定されたJSONフォーマットで返答してください。\n" +
	"同一の人物や一覧内で命名の揺れがないこと。\n" +
	"今までの登場人物一覧が与えられた場合は、内容を適宜更新し、既存の人物も含めた完全な一覧を返すこと。\n" +
	"gender は female, male, other, unknown のいずれかとすること。"

// extractionSchema accepts {"narrators": [...]}; a bare array is wrapped
// under "narrators" before validation.
var extractionSchema = structured.MustSchema("narrators", `{
  "type": "object",
  "properties": {
    "narrators": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string", "description": "キャラクター名。正式名称であることが好ましい"},
          "aliases": {"type": ["array", "null"], "items": {"type": "string"}, "description": "ニックネームや別称など"},
          "gender": {"type": ["string", "null"], "description": "性別"},
          "portrait": {"type": ["string", "null"], "description": "性格や来歴、外見といったキャラクターの特徴"}
        },
        "required": ["name"]
      }
    }
  },
  "required": ["narrators"]
}`, "narrators")

// extractionReply mirrors extractionSchema. Nullable fields decode to their
// zero value.
type extractionReply struct {
	Narrators []struct {
		Name     string   `json:"name"`
		Aliases  []string `json:"aliases"`
		Gender   *string  `json:"gender"`
		Portrait *string  `json:"portrait"`
	} `json:"narrators"`
}

// ExtractorOption is a functional option for [NewExtractor].
type ExtractorOption func(*Extractor)

// WithTemperature sets the sampling temperature. Default: 0 (provider default).
func WithTemperature(t float64) ExtractorOption {
	return func(e *Extractor) { e.temperature = t }
}

// WithMetrics records extraction outcomes into m instead of
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) ExtractorOption {
	return func(e *Extractor) { e.metrics = m }
}

// Extractor asks a language model for an updated roster given a chunk of
// text and the roster known so far. It is safe for concurrent use.
type Extractor struct {
	provider    llm.Provider
	temperature float64
	metrics     *observe.Metrics
}

// NewExtractor returns an Extractor backed by p.
func NewExtractor(p llm.Provider, opts ...ExtractorOption) *Extractor {
	e := &Extractor{provider: p}
	for _, o := range opts {
		o(e)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	return e
}

// Extract returns the roster the model extracted from text, given prev as
// the roster known so far. On any failure the returned roster is empty and
// the failure names the reason; the failure has already been logged.
func (e *Extractor) Extract(ctx context.Context, text string, prev Roster) (Roster, structured.Failure) {
	res := structured.Generate[extractionReply](ctx, e.provider, extractionSchema, structured.Request{
		SystemPrompt: extractionPrompt,
		Messages:     buildExtractionMessages(text, prev),
		Temperature:  e.temperature,
	})
	if !res.OK() {
		observe.Logger(ctx).Warn("roster: extraction failed, keeping previous roster",
			"failure", string(res.Failure),
			"err", res.Err,
			"previous", len(prev),
		)
		return nil, res.Failure
	}

	r := make(Roster, 0, len(res.Value.Narrators))
	for _, n := range res.Value.Narrators {
		rec := Narrator{Name: n.Name, Aliases: n.Aliases}
		if n.Gender != nil {
			rec.Gender = Gender(*n.Gender)
		}
		if n.Portrait != nil {
			rec.Portrait = *n.Portrait
		}
		r = append(r, rec)
	}
	return Normalize(r), structured.FailureNone
}

// Update extracts from each chunk in order, merging each result onto the
// roster accumulated so far. The returned roster is the final merge.
func (e *Extractor) Update(ctx context.Context, chunks []string, prev Roster) (Roster, error) {
	cur := prev
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return cur, err
		}
		next, failure := e.Extract(ctx, chunk, cur)
		if ctx.Err() != nil {
			return cur, ctx.Err()
		}
		outcome := "updated"
		if len(next) == 0 {
			outcome = "retained"
		}
		e.metrics.RecordRosterExtraction(ctx, outcome, string(failure))
		observe.Logger(ctx).Debug("roster: chunk extracted",
			"chunk", i+1, "of", len(chunks), "outcome", outcome, "narrators", len(next))
		cur = Merge(cur, next)
	}
	return cur, nil
}

// buildExtractionMessages renders the previous roster (if any) and the text
// as user messages.
func buildExtractionMessages(text string, prev Roster) []llm.Message {
	var msgs []llm.Message
	if len(prev) > 0 {
		var sb strings.Builder
		sb.WriteString("今までの登場人物一覧:")
		for _, n := range prev {
			fmt.Fprintf(&sb, "\n- %s (%s)", n.Name, n.Gender)
		}
		msgs = append(msgs, llm.UserMessage(sb.String()))
	}
	msgs = append(msgs, llm.UserMessage("小説の内容:\n"+text))
	return msgs
}
