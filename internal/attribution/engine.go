// Package attribution links every sentence of a novel to the narrator who
// speaks it.
//
// Sentences are visited strictly in document order. For each one the
// [Engine] builds a bounded [Window] (committed speakers before, raw text
// after) and asks the model for a single index into the choice list
// [narration, roster...]. Lines that are not corner-bracket dialogue skip
// inference when the dialogue-only filter is on. Any failed, malformed or
// out-of-range reply attributes the line to narration, logs it, and moves
// on; a single bad reply never stops the pass.
package attribution

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/scriptvox/internal/novel"
	"github.com/MrWong99/scriptvox/internal/observe"
	"github.com/MrWong99/scriptvox/internal/roster"
	"github.com/MrWong99/scriptvox/pkg/provider/llm"
	"github.com/MrWong99/scriptvox/pkg/provider/llm/structured"
)

// Resolution paths reported in [Stats] and metrics.
const (
	PathInferred = "inferred"
	PathFastPath = "fast_path"
	PathFallback = "fallback"
)

// FailureOutOfRange names an index that decoded fine but is not in the
// choice list.
const FailureOutOfRange structured.Failure = "index_out_of_range"

// Options tunes the engine.
type Options struct {
	// PreContext is how many preceding sentences are shown. Default: 5.
	PreContext int

	// AfterContext is how many following sentences are shown. Default: 2.
	AfterContext int

	// DialogueOnly skips inference for lines not bounded by 「」.
	// Default: true.
	DialogueOnly bool

	// Temperature is passed to the model. Default: 0.1.
	Temperature float64
}

// DefaultOptions returns the default tuning.
func DefaultOptions() Options {
	return Options{PreContext: 5, AfterContext: 2, DialogueOnly: true, Temperature: 0.1}
}

// Option is a functional option for [New].
type Option func(*Engine)

// WithOptions replaces the tuning. Negative context sizes are treated as 0.
func WithOptions(o Options) Option {
	return func(e *Engine) {
		o.PreContext = max(o.PreContext, 0)
		o.AfterContext = max(o.AfterContext, 0)
		e.opts = o
	}
}

// WithMetrics records into m instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// Stats summarises one Attribute call.
type Stats struct {
	// Inferred sentences were attributed from a valid model reply.
	Inferred int

	// FastPath sentences skipped inference: non-dialogue lines under the
	// dialogue-only filter, or any line when the roster is empty.
	FastPath int

	// Fallback sentences defaulted to narration after a failed reply.
	Fallback int

	// Blank lines are attributed to narration and not counted elsewhere.
	Blank int
}

// Total returns the number of sentences visited.
func (s Stats) Total() int { return s.Inferred + s.FastPath + s.Fallback + s.Blank }

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Inferred += o.Inferred
	s.FastPath += o.FastPath
	s.Fallback += o.Fallback
	s.Blank += o.Blank
}

// Engine attributes sentences using a language model. It holds no per-novel
// state and is safe for concurrent use across novels.
type Engine struct {
	provider llm.Provider
	opts     Options
	metrics  *observe.Metrics
}

// New returns an Engine backed by p with [DefaultOptions].
func New(p llm.Provider, opts ...Option) *Engine {
	e := &Engine{provider: p, opts: DefaultOptions()}
	for _, o := range opts {
		o(e)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	return e
}

// Options returns the engine's tuning.
func (e *Engine) Options() Options { return e.opts }

// Attribute sets n.Narrators to a copy of r and every Sentence.Narrator to
// either [roster.Narration] or an element of n.Narrators. It returns an
// error only when ctx is cancelled; sentences not yet visited keep a nil
// narrator in that case.
func (e *Engine) Attribute(ctx context.Context, n *novel.Novel, r roster.Roster) (Stats, error) {
	var stats Stats
	n.Narrators = r.Clone()
	log := observe.Logger(ctx)

	for i := range n.Sentences {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		s := &n.Sentences[i]

		switch {
		case s.Text == "":
			s.Narrator = roster.Narration
			stats.Blank++
			continue
		case (e.opts.DialogueOnly && !IsDialogue(s.Text)) || len(n.Narrators) == 0:
			s.Narrator = roster.Narration
			stats.FastPath++
			e.metrics.RecordAttribution(ctx, PathFastPath, "")
			continue
		}

		w := BuildWindow(n.Sentences, i, e.opts.PreContext, e.opts.AfterContext)
		speaker, failure, err := e.infer(ctx, w, n.Narrators)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stats, ctxErr
		}
		s.Narrator = speaker
		if failure != structured.FailureNone {
			stats.Fallback++
			e.metrics.RecordAttribution(ctx, PathFallback, string(failure))
			log.Warn("attribution: falling back to narration",
				"file", n.Path,
				"sentence", i,
				"failure", string(failure),
				"err", err,
			)
			continue
		}
		stats.Inferred++
		e.metrics.RecordAttribution(ctx, PathInferred, "")
		log.Debug("attribution: sentence attributed",
			"file", n.Path, "sentence", i, "speaker", speakerName(speaker))
	}
	return stats, nil
}

// infer asks the model for one index. The returned narrator is always
// usable: narration on any failure.
func (e *Engine) infer(ctx context.Context, w Window, choices roster.Roster) (*roster.Narrator, structured.Failure, error) {
	ctx, span := observe.StartSpan(ctx, "attribution.infer",
		trace.WithAttributes(
			attribute.Int("choices", len(choices)+1),
			attribute.Int("context.pre", len(w.Pre)),
			attribute.Int("context.after", len(w.After)),
		),
	)
	defer span.End()

	res := structured.Generate[indexReply](ctx, e.provider, indexSchema, structured.Request{
		SystemPrompt: attributionPrompt,
		Messages:     buildMessages(w, choices),
		Temperature:  e.opts.Temperature,
	})
	if !res.OK() {
		span.SetAttributes(attribute.String("failure", string(res.Failure)))
		return roster.Narration, res.Failure, res.Err
	}

	speaker, ok := Resolve(res.Value.Index, choices)
	if !ok {
		span.SetAttributes(attribute.String("failure", string(FailureOutOfRange)))
		return roster.Narration, FailureOutOfRange,
			fmt.Errorf("attribution: index %d outside 0..%d", res.Value.Index, len(choices))
	}
	span.SetAttributes(attribute.Int("index", res.Value.Index))
	return speaker, structured.FailureNone, nil
}

// Resolve maps a model index to a narrator: 0 is narration, 1..len(choices)
// is choices[index-1]. The returned pointer aliases choices.
func Resolve(index int, choices roster.Roster) (*roster.Narrator, bool) {
	switch {
	case index == 0:
		return roster.Narration, true
	case index >= 1 && index <= len(choices):
		return &choices[index-1], true
	}
	return nil, false
}

func speakerName(n *roster.Narrator) string {
	if roster.IsNarration(n) {
		return ""
	}
	return n.Name
}
