// Package app wires the scriptvox subsystems into a batch pipeline.
//
// New performs startup preflight (voice catalog and corpus listing) and
// builds every stage from the config. Run then processes the corpus one
// document at a time: roster extraction, sentence attribution, voice
// assignment and rendering. Shutdown releases whatever New and Run opened.
//
// Tests inject providers directly through [Providers]; nothing here talks to
// the network on its own.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/scriptvox/internal/attribution"
	"github.com/MrWong99/scriptvox/internal/config"
	"github.com/MrWong99/scriptvox/internal/health"
	"github.com/MrWong99/scriptvox/internal/novel"
	"github.com/MrWong99/scriptvox/internal/observe"
	"github.com/MrWong99/scriptvox/internal/render"
	"github.com/MrWong99/scriptvox/internal/roster"
	"github.com/MrWong99/scriptvox/internal/voice"
	"github.com/MrWong99/scriptvox/pkg/provider/llm"
	"github.com/MrWong99/scriptvox/pkg/provider/tts"
)

// ErrNoInput is returned by [New] when the input path holds no documents.
var ErrNoInput = errors.New("app: no input documents")

// ErrNoSynthesizer is returned by [App.Run] when the app was built without a
// synthesizer (roster-only mode).
var ErrNoSynthesizer = errors.New("app: no synthesizer configured")

// RosterFile is the name of the final roster snapshot written to the output
// directory.
const RosterFile = "roster.yaml"

// Providers holds one interface value per provider slot. Populated by main
// via the config registry.
type Providers struct {
	LLM llm.Provider

	// TTS may be nil, in which case only [App.ExtractRoster] is usable.
	TTS tts.Synthesizer

	// Engine, if non-nil, backs the synthesis readiness check.
	Engine health.Versioner
}

// Summary describes a completed [App.Run].
type Summary struct {
	RunID       string
	Files       int
	Skipped     int
	Attribution attribution.Stats
	Written     int
	Failed      int
	Roster      roster.Roster
}

// App owns the pipeline stages for one corpus.
type App struct {
	cfg       *config.Config
	providers Providers
	metrics   *observe.Metrics

	files   []string
	catalog *voice.Catalog
	seed    roster.Roster

	extractor  *roster.Extractor
	attributor *attribution.Engine
	assigner   *voice.Assigner
	renderer   *render.Renderer

	closers  []func() error
	stopOnce sync.Once
}

// Option is a functional option for New.
type Option func(*App)

// WithMetrics sets the metric instruments used by every stage. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New runs preflight and builds the pipeline for the documents under input.
// Catalog fetch and corpus listing run concurrently; either failing aborts.
// An empty catalog is fatal.
func New(ctx context.Context, cfg *config.Config, providers Providers, input string, opts ...Option) (*App, error) {
	if providers.LLM == nil {
		return nil, errors.New("app: no LLM provider configured")
	}
	a := &App{cfg: cfg, providers: providers}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	g, gctx := errgroup.WithContext(ctx)
	if providers.TTS != nil {
		g.Go(func() error {
			speakers, err := providers.TTS.Speakers(gctx)
			if err != nil {
				return fmt.Errorf("app: fetch voice catalog: %w", err)
			}
			c, err := voice.NewCatalog(speakers)
			if err != nil {
				return fmt.Errorf("app: %w", err)
			}
			a.catalog = c
			return nil
		})
	}
	g.Go(func() error {
		files, err := novel.ListCorpus(input, cfg.Render.Pattern)
		if err != nil {
			return fmt.Errorf("app: list corpus: %w", err)
		}
		if len(files) == 0 {
			return fmt.Errorf("%w under %q", ErrNoInput, input)
		}
		a.files = files
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if cfg.Roster.SeedFile != "" {
		seed, err := roster.LoadFile(cfg.Roster.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		a.seed = seed
		slog.Info("seeded roster", "path", cfg.Roster.SeedFile, "narrators", len(seed))
	}

	a.extractor = roster.NewExtractor(providers.LLM, roster.WithMetrics(a.metrics))
	a.attributor = attribution.New(providers.LLM,
		attribution.WithOptions(attributionOptions(cfg.Attribution)),
		attribution.WithMetrics(a.metrics),
	)

	if a.catalog != nil {
		if err := a.initRenderer(); err != nil {
			return nil, err
		}
		slog.Info("voice catalog loaded", "styles", a.catalog.Size())
	}

	slog.Info("corpus listed", "input", input, "files", len(a.files))
	return a, nil
}

func (a *App) initRenderer() error {
	opts := []voice.AssignerOption{voice.WithAssignerMetrics(a.metrics)}
	if n := a.cfg.Voices.Narration; n != nil {
		opts = append(opts, voice.WithNarrationVoice(voice.Candidate{Speaker: n.Speaker, Style: n.Style}))
	}
	for _, o := range a.cfg.Voices.Overrides {
		opts = append(opts, voice.WithOverride(o.Name, voice.Candidate{Speaker: o.Speaker, Style: o.Style}))
	}
	a.assigner = voice.NewAssigner(a.catalog, opts...)

	prosody, err := config.Prosody(a.cfg.Providers.TTS)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}
	a.renderer = render.New(a.providers.TTS, a.assigner, render.Options{
		OutputDir: a.cfg.Render.OutputDir,
		MaxChars:  a.cfg.Render.MaxChars,
		Prosody:   prosody,
		DryRun:    a.cfg.Render.DryRun,
	}, render.WithMetrics(a.metrics))
	return nil
}

// attributionOptions overlays the configured values onto the defaults. Nil
// fields keep the default, so an explicit zero is honoured.
func attributionOptions(c config.AttributionConfig) attribution.Options {
	o := attribution.DefaultOptions()
	if c.PreContext != nil {
		o.PreContext = *c.PreContext
	}
	if c.AfterContext != nil {
		o.AfterContext = *c.AfterContext
	}
	if c.DialogueOnly != nil {
		o.DialogueOnly = *c.DialogueOnly
	}
	if c.Temperature != nil {
		o.Temperature = *c.Temperature
	}
	return o
}

// Files returns the corpus in processing order.
func (a *App) Files() []string { return a.files }

// Catalog returns the voice catalog, or nil in roster-only mode.
func (a *App) Catalog() *voice.Catalog { return a.catalog }

// Assignments returns the voice map accumulated so far.
func (a *App) Assignments() []voice.Assignment {
	if a.assigner == nil {
		return nil
	}
	return a.assigner.Assignments()
}

// Shutdown runs the registered closers in reverse order. Safe to call more
// than once.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	a.stopOnce.Do(func() {
		for i := len(a.closers) - 1; i >= 0; i-- {
			if ctx.Err() != nil {
				errs = append(errs, ctx.Err())
				break
			}
			if err := a.closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
