// Package render turns an attributed document into per-speaker audio files
// and a script manifest.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/scriptvox/internal/novel"
	"github.com/MrWong99/scriptvox/internal/observe"
	"github.com/MrWong99/scriptvox/internal/voice"
	"github.com/MrWong99/scriptvox/pkg/provider/tts"
)

// DefaultMaxChars is the default chunk size in runes.
const DefaultMaxChars = 200

// Failure stages reported on the chunk failure metric.
const (
	StageSynthesize = "synthesize"
	StageWrite      = "write"
)

// Options controls a [Renderer].
type Options struct {
	// OutputDir receives one sub-directory per document.
	OutputDir string

	// MaxChars bounds each synthesis request; see [ChunkLines].
	MaxChars int

	// Prosody is passed to every synthesis call.
	Prosody tts.Prosody

	// DryRun assigns voices and plans files without calling the synthesizer.
	DryRun bool
}

// Chunk is one planned or written audio file.
type Chunk struct {
	File     string        `yaml:"file"`
	Speaker  string        `yaml:"speaker"`
	Voice    int           `yaml:"voice"`
	Text     string        `yaml:"text"`
	Duration time.Duration `yaml:"duration,omitempty"`
	Err      string        `yaml:"error,omitempty"`
}

// Report summarises one [Renderer.Render] call.
type Report struct {
	Dir      string
	Chunks   []Chunk
	Written  int
	Failed   int
	Duration time.Duration
}

// Option configures a [Renderer].
type Option func(*Renderer)

// WithMetrics records chunk outcomes on m instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Renderer) {
		r.metrics = m
	}
}

// Renderer synthesises grouped document text to WAV files.
type Renderer struct {
	synth    tts.Synthesizer
	assigner *voice.Assigner
	opts     Options
	metrics  *observe.Metrics
}

// New creates a Renderer. A non-positive MaxChars uses [DefaultMaxChars].
func New(synth tts.Synthesizer, assigner *voice.Assigner, opts Options, extra ...Option) *Renderer {
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}
	r := &Renderer{synth: synth, assigner: assigner, opts: opts}
	for _, o := range extra {
		o(r)
	}
	if r.metrics == nil {
		r.metrics = observe.DefaultMetrics()
	}
	return r
}

// Dir is the output directory for n.
func (r *Renderer) Dir(n *novel.Novel) string {
	return filepath.Join(r.opts.OutputDir, n.Stem)
}

// Render writes n's audio under [Renderer.Dir]. fileIndex numbers the
// document within the corpus, starting at 1. Failed chunks are logged,
// counted and skipped; an error is returned only when the output directory
// cannot be created or ctx is done.
func (r *Renderer) Render(ctx context.Context, fileIndex int, n *novel.Novel) (Report, error) {
	ctx, span := observe.StartSpan(ctx, "render.file",
		trace.WithAttributes(attribute.String("file", n.Path), attribute.Bool("dry_run", r.opts.DryRun)))
	defer span.End()
	log := observe.Logger(ctx)

	rep := Report{Dir: r.Dir(n)}
	if err := os.MkdirAll(rep.Dir, 0o755); err != nil {
		return rep, fmt.Errorf("render: create output dir: %w", err)
	}

	for gi, g := range Groups(n) {
		id := r.assigner.Select(ctx, g.Narrator)
		for ci, text := range ChunkLines(g.Lines, r.opts.MaxChars) {
			if err := ctx.Err(); err != nil {
				return rep, err
			}
			c := Chunk{
				File:    FileName(fileIndex, gi+1, ci+1, g.Name()),
				Speaker: g.Name(),
				Voice:   id,
				Text:    text,
			}
			if !r.opts.DryRun {
				r.synthesize(ctx, rep.Dir, &c)
				if err := ctx.Err(); err != nil {
					return rep, err
				}
				if c.Err != "" {
					rep.Failed++
				} else {
					rep.Written++
					rep.Duration += c.Duration
				}
			}
			rep.Chunks = append(rep.Chunks, c)
		}
	}

	log.Info("render: document done",
		"file", n.Path, "dir", rep.Dir, "chunks", len(rep.Chunks),
		"written", rep.Written, "failed", rep.Failed, "audio", rep.Duration)
	return rep, nil
}

func (r *Renderer) synthesize(ctx context.Context, dir string, c *Chunk) {
	log := observe.Logger(ctx)
	audio, err := r.synth.Synthesize(ctx, c.Text, c.Voice, r.opts.Prosody)
	if err != nil {
		c.Err = err.Error()
		if ctx.Err() != nil {
			return
		}
		log.Error("render: synthesis failed, skipping chunk", "file", c.File, "voice", c.Voice, "err", err)
		r.metrics.RecordChunk(ctx, StageSynthesize)
		return
	}
	if err := os.WriteFile(filepath.Join(dir, c.File), audio, 0o644); err != nil {
		log.Error("render: write failed, skipping chunk", "file", c.File, "err", err)
		r.metrics.RecordChunk(ctx, StageWrite)
		c.Err = err.Error()
		return
	}
	if info, err := tts.ParseWAV(audio); err == nil {
		c.Duration = info.Duration()
	} else {
		log.Debug("render: output is not a parseable WAV", "file", c.File, "err", err)
	}
	r.metrics.RecordChunk(ctx, "")
}
