// Command scriptvox turns plain-text novels into per-speaker audio scripts.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrWong99/scriptvox/internal/app"
	"github.com/MrWong99/scriptvox/internal/config"
	"github.com/MrWong99/scriptvox/internal/observe"
	"github.com/MrWong99/scriptvox/internal/roster"
)

// version is overridden at link time.
var version = "dev"

const defaultConfigPath = "scriptvox.yaml"

// flags shared by every subcommand.
type flags struct {
	configPath string
	outDir     string
	dryRun     bool
	seedRoster string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "scriptvox",
		Short:         "Attribute novel dialogue to characters and voice it with VOICEVOX",
		Version:       version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&f.configPath, "config", defaultConfigPath, "path to the YAML configuration file")
	root.PersistentFlags().StringVar(&f.outDir, "out", "", "output directory (overrides render.output_dir)")
	root.PersistentFlags().StringVar(&f.seedRoster, "seed-roster", "", "roster YAML to start from (overrides roster.seed_file)")

	run := &cobra.Command{
		Use:   "run [input]",
		Short: "Extract, attribute and render a file or a directory of files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), f, args[0])
		},
	}
	run.Flags().BoolVar(&f.dryRun, "dry-run", false, "assign voices and write manifests without synthesis")

	voices := &cobra.Command{
		Use:   "voices",
		Short: "Print the synthesis engine's voice catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printVoices(cmd.Context(), f, cmd.OutOrStdout())
		},
	}

	rosterCmd := &cobra.Command{
		Use:   "roster [input]",
		Short: "Extract the character roster only",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return extractRoster(cmd.Context(), f, args[0], cmd.OutOrStdout())
		},
	}

	root.AddCommand(run, voices, rosterCmd)
	return root
}

// setup loads the config, applies flag overrides, installs the logger and
// the OTel providers, and returns a signal-aware context. The returned
// cleanup must always be called.
func setup(parent context.Context, f *flags) (context.Context, *config.Config, func(), error) {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if f.outDir != "" {
		cfg.Render.OutputDir = f.outDir
	}
	if f.seedRoster != "" {
		cfg.Roster.SeedFile = f.seedRoster
	}
	if f.dryRun {
		cfg.Render.DryRun = true
	}

	logger, closeLog := newLogger(cfg.Log)
	slog.SetDefault(logger)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)

	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    cfg.Observe.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		stop()
		closeLog()
		slog.Error("failed to initialise telemetry", "err", err)
		return nil, nil, nil, err
	}

	cleanup := func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			slog.Warn("telemetry shutdown", "err", err)
		}
		stop()
		closeLog()
	}
	return ctx, cfg, cleanup, nil
}

// loadConfig reads path. A missing file at the default location yields the
// defaults, so the tool runs without any config against local services.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) && path == defaultConfigPath {
		return config.Default(), nil
	}
	return cfg, err
}

func runPipeline(parent context.Context, f *flags, input string) error {
	ctx, cfg, cleanup, err := setup(parent, f)
	if err != nil {
		return err
	}
	defer cleanup()

	slog.Info("scriptvox starting",
		"version", version,
		"input", input,
		"llm", cfg.Providers.LLM.Name+"/"+cfg.Providers.LLM.Model,
		"tts", cfg.Providers.TTS.Name,
		"out", cfg.Render.OutputDir,
		"dry_run", cfg.Render.DryRun,
	)

	reg := config.NewRegistry()
	registerBuiltinProviders(reg, observe.DefaultMetrics())
	providers, err := buildProviders(cfg, reg, observe.DefaultMetrics(), true)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return err
	}

	a, err := app.New(ctx, cfg, providers, input)
	if err != nil {
		slog.Error("failed to initialise pipeline", "err", err)
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Shutdown(sctx); err != nil {
			slog.Warn("shutdown", "err", err)
		}
	}()

	sum, err := a.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Warn("interrupted", "files_done", sum.Files)
		} else {
			slog.Error("run failed", "err", err)
		}
		return err
	}
	return nil
}

func printVoices(parent context.Context, f *flags, w io.Writer) error {
	ctx, cfg, cleanup, err := setup(parent, f)
	if err != nil {
		return err
	}
	defer cleanup()

	reg := config.NewRegistry()
	registerBuiltinProviders(reg, observe.DefaultMetrics())
	synth, err := reg.CreateTTS(cfg.Providers.TTS)
	if err != nil {
		slog.Error("failed to build synthesizer", "err", err)
		return err
	}
	speakers, err := synth.Speakers(ctx)
	if err != nil {
		slog.Error("failed to fetch voice catalog", "err", err)
		return err
	}
	return writeCatalog(w, speakers)
}

func extractRoster(parent context.Context, f *flags, input string, w io.Writer) error {
	ctx, cfg, cleanup, err := setup(parent, f)
	if err != nil {
		return err
	}
	defer cleanup()

	reg := config.NewRegistry()
	registerBuiltinProviders(reg, observe.DefaultMetrics())
	providers, err := buildProviders(cfg, reg, observe.DefaultMetrics(), false)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return err
	}
	a, err := app.New(ctx, cfg, providers, input)
	if err != nil {
		slog.Error("failed to initialise pipeline", "err", err)
		return err
	}
	r, err := a.ExtractRoster(ctx)
	if err != nil {
		slog.Error("roster extraction failed", "err", err)
		return err
	}
	writeRoster(w, r)

	if f.outDir != "" {
		path := filepath.Join(f.outDir, app.RosterFile)
		if err := roster.SaveFile(path, r); err != nil {
			slog.Error("failed to save roster", "err", err)
			return err
		}
		slog.Info("roster saved", "path", path, "narrators", len(r))
	}
	return nil
}
