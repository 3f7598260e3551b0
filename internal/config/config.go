// Package config provides the configuration schema, loader, and provider
// registry for scriptvox.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// LogFormat selects the slog handler.
type LogFormat string

const (
	LogText   LogFormat = "text"
	LogJSON   LogFormat = "json"
	LogPretty LogFormat = "pretty"
)

// IsValid reports whether f is a recognised log format.
func (f LogFormat) IsValid() bool {
	switch f {
	case LogText, LogJSON, LogPretty:
		return true
	}
	return false
}

// Config is the root configuration structure for scriptvox.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Log         LogConfig         `yaml:"log"`
	Providers   ProvidersConfig   `yaml:"providers"`
	Roster      RosterConfig      `yaml:"roster"`
	Attribution AttributionConfig `yaml:"attribution"`
	Voices      VoicesConfig      `yaml:"voices"`
	Render      RenderConfig      `yaml:"render"`
	Observe     ObserveConfig     `yaml:"observe"`
}

// LogConfig selects log verbosity, format and destination.
type LogConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`

	// File, when set, sends logs to a rotating file instead of stderr.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// ProvidersConfig declares the inference and synthesis backends. Each entry
// selects a named provider registered in the [Registry].
type ProvidersConfig struct {
	LLM ProviderEntry `yaml:"llm"`

	// LLMFallbacks are tried in order when LLM fails or its circuit is open.
	LLMFallbacks []ProviderEntry `yaml:"llm_fallbacks"`

	TTS ProviderEntry `yaml:"tts"`
}

// ProviderEntry is the common configuration block shared by all provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "ollama", "voicevox").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider.
	Model string `yaml:"model"`

	// Options holds provider-specific values not covered by the fields
	// above, such as prosody for voicevox. Read them with the Opt* helpers.
	Options map[string]any `yaml:"options"`
}

// RosterConfig controls character extraction.
type RosterConfig struct {
	// SeedFile is an optional roster snapshot loaded before the first document.
	SeedFile string `yaml:"seed_file"`

	// ChunkChars bounds the text sent per extraction request, in runes.
	ChunkChars int `yaml:"chunk_chars"`

	// DriftThreshold is the Jaro-Winkler score above which two roster names
	// are reported as a suspected naming drift.
	DriftThreshold float64 `yaml:"drift_threshold"`
}

// AttributionConfig controls speaker attribution. Nil fields take defaults.
type AttributionConfig struct {
	PreContext   *int     `yaml:"pre_context"`
	AfterContext *int     `yaml:"after_context"`
	DialogueOnly *bool    `yaml:"dialogue_only"`
	Temperature  *float64 `yaml:"temperature"`
}

// VoiceRef names a synthesizer speaker and an optional style hint.
type VoiceRef struct {
	Speaker string `yaml:"speaker"`
	Style   string `yaml:"style"`
}

// VoiceOverride pins a character to a voice.
type VoiceOverride struct {
	Name    string `yaml:"name"`
	Speaker string `yaml:"speaker"`
	Style   string `yaml:"style"`
}

// VoicesConfig adjusts automatic voice assignment.
type VoicesConfig struct {
	Narration *VoiceRef       `yaml:"narration"`
	Overrides []VoiceOverride `yaml:"overrides"`
}

// RenderConfig controls audio output.
type RenderConfig struct {
	OutputDir string `yaml:"output_dir"`

	// MaxChars bounds each synthesis request, in runes.
	MaxChars int `yaml:"max_chars"`

	// DryRun attributes and assigns voices without synthesising audio.
	DryRun bool `yaml:"dry_run"`

	// Pattern selects corpus files when the input is a directory.
	Pattern string `yaml:"pattern"`
}

// ObserveConfig configures the optional metrics and health server.
type ObserveConfig struct {
	// ListenAddr enables the server when set (e.g., ":9090").
	ListenAddr  string `yaml:"listen_addr"`
	ServiceName string `yaml:"service_name"`
}
