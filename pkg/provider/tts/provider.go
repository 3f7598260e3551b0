// Package tts defines the Synthesizer interface for text-to-speech backends.
//
// A synthesizer exposes a finite catalog of speakers, each with one or more
// styles identified by an integer id that is unique across the whole catalog.
// Synthesis is batch mode: one call per text chunk, returning a complete
// audio file (WAV for the engines supported here).
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"
	"errors"
)

// ErrEmptyText is returned by Synthesize when the text is blank after
// trimming. Nothing is sent to the engine in that case.
var ErrEmptyText = errors.New("tts: empty text")

// Style is a named voice variant belonging to a [Speaker].
type Style struct {
	// ID is the engine's style identifier, unique across the catalog.
	ID int

	// Name is the style's display name (e.g. "ノーマル", "あまあま").
	Name string
}

// Speaker is one voice character exposed by the engine.
type Speaker struct {
	// Name is the speaker's display name.
	Name string

	// UUID is the engine's stable speaker identifier. May be empty.
	UUID string

	// Styles lists the speaker's voice variants in engine order.
	Styles []Style
}

// Prosody holds the scale parameters applied to every synthesis request.
type Prosody struct {
	// Speed is the speaking-rate multiplier (1.0 = engine default).
	Speed float64

	// Pitch shifts pitch (0.0 = engine default).
	Pitch float64

	// Intonation scales intonation strength (1.0 = engine default).
	Intonation float64

	// Volume scales loudness (1.0 = engine default).
	Volume float64

	// Upspeak raises pitch at the end of interrogative sentences.
	Upspeak bool
}

// DefaultProsody returns the neutral prosody settings.
func DefaultProsody() Prosody {
	return Prosody{Speed: 1.0, Pitch: 0.0, Intonation: 1.0, Volume: 1.0, Upspeak: true}
}

// Synthesizer is the abstraction over any batch TTS backend.
type Synthesizer interface {
	// Speakers returns the engine's voice catalog.
	//
	// Returns an error if the engine cannot be reached or ctx is cancelled.
	Speakers(ctx context.Context) ([]Speaker, error)

	// Synthesize renders text with the style identified by styleID and
	// returns the encoded audio file.
	//
	// Returns ErrEmptyText for blank text. Any other failure is returned as
	// an error; callers decide whether to skip the chunk.
	Synthesize(ctx context.Context, text string, styleID int, prosody Prosody) ([]byte, error)
}
