package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm": {"openai", "openai-compatible", "ollama", "anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"tts": {"voicevox"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and
// validates the result. Unknown keys are rejected. An empty document yields
// the defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. Call it after
// [ApplyDefaults]. It returns a joined error listing all validation
// failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Log
	if !cfg.Log.Level.IsValid() {
		errs = append(errs, fmt.Errorf("log.level %q is invalid; valid values: debug, info, warn, error", cfg.Log.Level))
	}
	if !cfg.Log.Format.IsValid() {
		errs = append(errs, fmt.Errorf("log.format %q is invalid; valid values: text, json, pretty", cfg.Log.Format))
	}
	if cfg.Log.MaxSizeMB < 0 || cfg.Log.MaxBackups < 0 || cfg.Log.MaxAgeDays < 0 {
		errs = append(errs, errors.New("log rotation limits must not be negative"))
	}

	// Providers
	validateProviderName("llm", cfg.Providers.LLM.Name)
	for i, fb := range cfg.Providers.LLMFallbacks {
		if fb.Name == "" {
			errs = append(errs, fmt.Errorf("providers.llm_fallbacks[%d].name is required", i))
			continue
		}
		validateProviderName("llm", fb.Name)
	}
	validateProviderName("tts", cfg.Providers.TTS.Name)
	if cfg.Providers.TTS.Name == DefaultTTSProvider {
		if _, err := Prosody(cfg.Providers.TTS); err != nil {
			errs = append(errs, err)
		}
		if d, ok, err := OptDuration(cfg.Providers.TTS.Options, "timeout"); err != nil {
			errs = append(errs, fmt.Errorf("providers.tts.%w", err))
		} else if ok && d <= 0 {
			errs = append(errs, fmt.Errorf("providers.tts.options.timeout %s must be positive", d))
		}
	}

	// Roster
	if cfg.Roster.ChunkChars <= 0 {
		errs = append(errs, fmt.Errorf("roster.chunk_chars %d must be positive", cfg.Roster.ChunkChars))
	}
	if cfg.Roster.DriftThreshold <= 0 || cfg.Roster.DriftThreshold > 1 {
		errs = append(errs, fmt.Errorf("roster.drift_threshold %.2f is out of range (0, 1]", cfg.Roster.DriftThreshold))
	}

	// Attribution
	a := cfg.Attribution
	if a.PreContext != nil && *a.PreContext < 0 {
		errs = append(errs, fmt.Errorf("attribution.pre_context %d must not be negative", *a.PreContext))
	}
	if a.AfterContext != nil && *a.AfterContext < 0 {
		errs = append(errs, fmt.Errorf("attribution.after_context %d must not be negative", *a.AfterContext))
	}
	if a.Temperature != nil && (*a.Temperature < 0 || *a.Temperature > 2) {
		errs = append(errs, fmt.Errorf("attribution.temperature %.2f is out of range [0, 2]", *a.Temperature))
	}

	// Voices
	if n := cfg.Voices.Narration; n != nil && n.Speaker == "" {
		errs = append(errs, errors.New("voices.narration.speaker is required"))
	}
	for i, o := range cfg.Voices.Overrides {
		prefix := fmt.Sprintf("voices.overrides[%d]", i)
		if o.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if o.Speaker == "" {
			errs = append(errs, fmt.Errorf("%s.speaker is required", prefix))
		}
	}

	// Render
	if cfg.Render.MaxChars <= 0 {
		errs = append(errs, fmt.Errorf("render.max_chars %d must be positive", cfg.Render.MaxChars))
	}
	if _, err := filepath.Match(cfg.Render.Pattern, ""); err != nil {
		errs = append(errs, fmt.Errorf("render.pattern %q is invalid: %w", cfg.Render.Pattern, err))
	}
	if cfg.Render.OutputDir == "" {
		errs = append(errs, errors.New("render.output_dir is required"))
	}

	return errors.Join(errs...)
}

// joinPrefixed prefixes every error with path and joins them.
func joinPrefixed(path string, errs []error) error {
	for i, err := range errs {
		errs[i] = fmt.Errorf("%s.%w", path, err)
	}
	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
