// Package mock provides a test double for the tts.Synthesizer interface.
//
// Use Synthesizer to feed a fixed catalog to the voice engine and to verify
// which text and style ids the renderer dispatches.
//
// Example:
//
//	s := &mock.Synthesizer{
//	    SpeakersResult: []tts.Speaker{{Name: "ずんだもん", Styles: []tts.Style{{ID: 3, Name: "ノーマル"}}}},
//	    Audio:          tts.BuildWAV(make([]byte, 480), 24000, 1),
//	}
package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/MrWong99/scriptvox/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	Ctx     context.Context
	Text    string
	StyleID int
	Prosody tts.Prosody
}

// Synthesizer is a mock implementation of tts.Synthesizer.
type Synthesizer struct {
	mu sync.Mutex

	// SpeakersResult is returned by Speakers.
	SpeakersResult []tts.Speaker

	// SpeakersErr, if non-nil, is returned as the error from Speakers.
	SpeakersErr error

	// Audio is returned by every successful Synthesize call.
	Audio []byte

	// SynthesizeErr, if non-nil, is returned as the error from Synthesize.
	SynthesizeErr error

	// FailOn, if non-nil, is consulted per call; a non-nil result is
	// returned as the error for that call only.
	FailOn func(text string, styleID int) error

	// SpeakersCalls counts calls to Speakers.
	SpeakersCalls int

	// SynthesizeCalls records every invocation of Synthesize in order.
	SynthesizeCalls []SynthesizeCall
}

// Speakers returns SpeakersResult or SpeakersErr.
func (s *Synthesizer) Speakers(_ context.Context) ([]tts.Speaker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SpeakersCalls++
	if s.SpeakersErr != nil {
		return nil, s.SpeakersErr
	}
	return s.SpeakersResult, nil
}

// Synthesize records the call and returns Audio. Blank text yields
// tts.ErrEmptyText without being recorded, matching real engines.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, styleID int, prosody tts.Prosody) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, tts.ErrEmptyText
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SynthesizeCalls = append(s.SynthesizeCalls, SynthesizeCall{Ctx: ctx, Text: text, StyleID: styleID, Prosody: prosody})
	if s.SynthesizeErr != nil {
		return nil, s.SynthesizeErr
	}
	if s.FailOn != nil {
		if err := s.FailOn(text, styleID); err != nil {
			return nil, err
		}
	}
	out := make([]byte, len(s.Audio))
	copy(out, s.Audio)
	return out, nil
}

// Calls returns a copy of the recorded Synthesize calls. Thread-safe.
func (s *Synthesizer) Calls() []SynthesizeCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SynthesizeCall, len(s.SynthesizeCalls))
	copy(out, s.SynthesizeCalls)
	return out
}

// Ensure Synthesizer implements tts.Synthesizer at compile time.
var _ tts.Synthesizer = (*Synthesizer)(nil)
