package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/scriptvox/internal/app"
	"github.com/MrWong99/scriptvox/internal/config"
	"github.com/MrWong99/scriptvox/internal/health"
	"github.com/MrWong99/scriptvox/internal/observe"
	"github.com/MrWong99/scriptvox/internal/resilience"
	"github.com/MrWong99/scriptvox/pkg/provider/llm"
	"github.com/MrWong99/scriptvox/pkg/provider/llm/anyllm"
	"github.com/MrWong99/scriptvox/pkg/provider/llm/ollama"
	"github.com/MrWong99/scriptvox/pkg/provider/llm/openai"
	"github.com/MrWong99/scriptvox/pkg/provider/tts"
	"github.com/MrWong99/scriptvox/pkg/provider/tts/voicevox"
)

// Request timeouts applied when the entry sets no "timeout" option.
const (
	defaultLLMTimeout = 120 * time.Second
	defaultTTSTimeout = 30 * time.Second
)

// registerBuiltinProviders wires every built-in factory into reg. HTTP
// backends we construct ourselves get the instrumented client from m.
func registerBuiltinProviders(reg *config.Registry, m *observe.Metrics) {
	// Hosted APIs go through any-llm-go: optional APIKey + optional BaseURL.
	for _, name := range []string{"anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"} {
		reg.RegisterLLM(name, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(name, entry.Model, opts...)
		})
	}

	// openai and openai-compatible servers use the native client for
	// json_schema response formats.
	for _, name := range []string{"openai", "openai-compatible"} {
		reg.RegisterLLM(name, func(entry config.ProviderEntry) (llm.Provider, error) {
			timeout, err := timeoutOption(entry, defaultLLMTimeout)
			if err != nil {
				return nil, err
			}
			key := entry.APIKey
			if key == "" && name == "openai-compatible" {
				// Local servers ignore the key but the client requires one.
				key = "unused"
			}
			opts := []openai.Option{openai.WithHTTPClient(observe.NewHTTPClient(m, timeout))}
			if entry.BaseURL != "" {
				opts = append(opts, openai.WithBaseURL(entry.BaseURL))
			}
			if org := config.OptString(entry.Options, "organization"); org != "" {
				opts = append(opts, openai.WithOrganization(org))
			}
			return openai.New(key, entry.Model, opts...)
		})
	}

	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		timeout, err := timeoutOption(entry, defaultLLMTimeout)
		if err != nil {
			return nil, err
		}
		opts := []ollama.Option{ollama.WithHTTPClient(observe.NewHTTPClient(m, timeout))}
		if d, ok, err := config.OptDuration(entry.Options, "keep_alive"); err != nil {
			return nil, err
		} else if ok {
			opts = append(opts, ollama.WithKeepAlive(d))
		}
		if n, ok, err := config.OptFloat(entry.Options, "num_ctx"); err != nil {
			return nil, err
		} else if ok {
			opts = append(opts, ollama.WithContextLength(int(n)))
		}
		return ollama.New(entry.BaseURL, entry.Model, opts...)
	})

	reg.RegisterTTS("voicevox", func(entry config.ProviderEntry) (tts.Synthesizer, error) {
		timeout, err := timeoutOption(entry, defaultTTSTimeout)
		if err != nil {
			return nil, err
		}
		return voicevox.New(entry.BaseURL, voicevox.WithHTTPClient(observe.NewHTTPClient(m, timeout)))
	})
}

func timeoutOption(entry config.ProviderEntry, def time.Duration) (time.Duration, error) {
	d, ok, err := config.OptDuration(entry.Options, "timeout")
	if err != nil {
		return 0, fmt.Errorf("%s: %w", entry.Name, err)
	}
	if !ok || d <= 0 {
		return def, nil
	}
	return d, nil
}

// buildProviders instantiates the configured providers and layers metrics
// and resilience on top. The synthesizer is skipped when withTTS is false.
func buildProviders(cfg *config.Config, reg *config.Registry, m *observe.Metrics, withTTS bool) (app.Providers, error) {
	var ps app.Providers

	primary, err := reg.CreateLLM(cfg.Providers.LLM)
	if err != nil {
		return ps, fmt.Errorf("create llm provider %q: %w", cfg.Providers.LLM.Name, err)
	}
	ps.LLM = observe.WrapLLM(primary, cfg.Providers.LLM.Name, m)
	slog.Info("provider created", "kind", "llm", "name", cfg.Providers.LLM.Name, "model", cfg.Providers.LLM.Model)

	if len(cfg.Providers.LLMFallbacks) > 0 {
		group := resilience.NewLLMFallback(ps.LLM, cfg.Providers.LLM.Name, resilience.FallbackConfig{})
		for _, entry := range cfg.Providers.LLMFallbacks {
			p, err := reg.CreateLLM(entry)
			if errors.Is(err, config.ErrProviderNotRegistered) {
				slog.Warn("skipping unknown fallback provider", "name", entry.Name)
				continue
			}
			if err != nil {
				return ps, fmt.Errorf("create llm fallback %q: %w", entry.Name, err)
			}
			group.AddFallback(entry.Name, observe.WrapLLM(p, entry.Name, m))
		}
		slog.Info("llm failover enabled", "order", group.Names())
		ps.LLM = group
	}

	if !withTTS {
		return ps, nil
	}
	synth, err := reg.CreateTTS(cfg.Providers.TTS)
	if err != nil {
		return ps, fmt.Errorf("create tts provider %q: %w", cfg.Providers.TTS.Name, err)
	}
	if v, ok := synth.(health.Versioner); ok {
		ps.Engine = v
	}
	breaker := resilience.NewSynthesizer(synth, resilience.CircuitBreakerConfig{Name: cfg.Providers.TTS.Name})
	ps.TTS = observe.WrapSynthesizer(breaker, cfg.Providers.TTS.Name, m)
	slog.Info("provider created", "kind", "tts", "name", cfg.Providers.TTS.Name)
	return ps, nil
}
