package config

import (
	"fmt"
	"time"

	"github.com/MrWong99/scriptvox/pkg/provider/tts"
)

// OptString extracts a string value from a provider Options map.
// Returns "" if the key is missing or the value is not a string.
func OptString(opts map[string]any, key string) string {
	s, _ := opts[key].(string)
	return s
}

// OptFloat extracts a number from a provider Options map. ok is false when
// the key is missing; err is set when the value is not a number.
func OptFloat(opts map[string]any, key string) (v float64, ok bool, err error) {
	raw, ok := opts[key]
	if !ok {
		return 0, false, nil
	}
	switch n := raw.(type) {
	case int:
		return float64(n), true, nil
	case float64:
		return n, true, nil
	}
	return 0, true, fmt.Errorf("options.%s: want a number, got %T", key, raw)
}

// OptBool extracts a boolean from a provider Options map.
func OptBool(opts map[string]any, key string) (v, ok bool, err error) {
	raw, ok := opts[key]
	if !ok {
		return false, false, nil
	}
	b, isBool := raw.(bool)
	if !isBool {
		return false, true, fmt.Errorf("options.%s: want a boolean, got %T", key, raw)
	}
	return b, true, nil
}

// OptDuration extracts a duration given either as a Go duration string
// ("45s") or as a number of seconds.
func OptDuration(opts map[string]any, key string) (time.Duration, bool, error) {
	raw, ok := opts[key]
	if !ok {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, true, fmt.Errorf("options.%s: %w", key, err)
		}
		return d, true, nil
	case int:
		return time.Duration(v) * time.Second, true, nil
	case float64:
		return time.Duration(v * float64(time.Second)), true, nil
	}
	return 0, true, fmt.Errorf("options.%s: want a duration, got %T", key, raw)
}

// Prosody reads the synthesizer prosody from a voicevox provider entry,
// starting from [tts.DefaultProsody]. Ranges follow the VOICEVOX engine.
func Prosody(entry ProviderEntry) (tts.Prosody, error) {
	p := tts.DefaultProsody()
	var errs []error
	scale := func(key string, dst *float64, lo, hi float64) {
		v, ok, err := OptFloat(entry.Options, key)
		switch {
		case err != nil:
			errs = append(errs, err)
		case ok && (v < lo || v > hi):
			errs = append(errs, fmt.Errorf("options.%s %.2f is out of range [%.2f, %.2f]", key, v, lo, hi))
		case ok:
			*dst = v
		}
	}
	scale("speed", &p.Speed, 0.5, 2.0)
	scale("pitch", &p.Pitch, -0.15, 0.15)
	scale("intonation", &p.Intonation, 0, 2.0)
	scale("volume", &p.Volume, 0, 2.0)

	if v, ok, err := OptBool(entry.Options, "upspeak"); err != nil {
		errs = append(errs, err)
	} else if ok {
		p.Upspeak = v
	}
	return p, joinPrefixed("providers.tts", errs)
}
