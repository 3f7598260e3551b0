package config

// Defaults applied by [ApplyDefaults].
const (
	DefaultLLMProvider    = "ollama"
	DefaultLLMModel       = "qwen3:30b-a3b-thinking-2507-q4_K_M"
	DefaultTTSProvider    = "voicevox"
	DefaultChunkChars     = 6000
	DefaultDriftThreshold = 0.92
	DefaultPreContext     = 5
	DefaultAfterContext   = 2
	DefaultTemperature    = 0.1
	DefaultOutputDir      = "out"
	DefaultMaxChars       = 200
	DefaultPattern        = "*.txt"
	DefaultServiceName    = "scriptvox"
)

// Default returns a configuration with every default applied. It is used
// when no config file exists.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every unset field of cfg.
func ApplyDefaults(cfg *Config) {
	l := &cfg.Log
	l.Level = or(l.Level, LogInfo)
	l.Format = or(l.Format, LogText)
	l.MaxSizeMB = or(l.MaxSizeMB, 100)
	l.MaxBackups = or(l.MaxBackups, 3)
	l.MaxAgeDays = or(l.MaxAgeDays, 28)

	p := &cfg.Providers
	if p.LLM.Name == "" {
		p.LLM.Name = DefaultLLMProvider
		p.LLM.Model = or(p.LLM.Model, DefaultLLMModel)
	}
	p.TTS.Name = or(p.TTS.Name, DefaultTTSProvider)

	r := &cfg.Roster
	r.ChunkChars = or(r.ChunkChars, DefaultChunkChars)
	r.DriftThreshold = or(r.DriftThreshold, DefaultDriftThreshold)

	a := &cfg.Attribution
	a.PreContext = orPtr(a.PreContext, DefaultPreContext)
	a.AfterContext = orPtr(a.AfterContext, DefaultAfterContext)
	a.DialogueOnly = orPtr(a.DialogueOnly, true)
	a.Temperature = orPtr(a.Temperature, DefaultTemperature)

	o := &cfg.Render
	o.OutputDir = or(o.OutputDir, DefaultOutputDir)
	o.MaxChars = or(o.MaxChars, DefaultMaxChars)
	o.Pattern = or(o.Pattern, DefaultPattern)

	cfg.Observe.ServiceName = or(cfg.Observe.ServiceName, DefaultServiceName)
}

func or[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

func orPtr[T any](v *T, def T) *T {
	if v == nil {
		return &def
	}
	return v
}
