package resilience

import (
	"context"
	"errors"

	"github.com/MrWong99/scriptvox/pkg/provider/tts"
)

// Synthesizer wraps a [tts.Synthesizer] in a circuit breaker so that a dead
// engine fails the remaining chunks fast instead of waiting out a timeout
// for each. Rejected text ([tts.ErrEmptyText]) does not count as a failure.
type Synthesizer struct {
	inner   tts.Synthesizer
	breaker *CircuitBreaker
}

var _ tts.Synthesizer = (*Synthesizer)(nil)

// NewSynthesizer wraps s. cfg.IsFailure, when nil, defaults to
// [CountsAsFailure] minus [tts.ErrEmptyText].
func NewSynthesizer(s tts.Synthesizer, cfg CircuitBreakerConfig) *Synthesizer {
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool {
			return CountsAsFailure(err) && !errors.Is(err, tts.ErrEmptyText)
		}
	}
	return &Synthesizer{inner: s, breaker: NewCircuitBreaker(cfg)}
}

// Speakers bypasses the breaker; the catalog is fetched once at startup and
// its failure is fatal anyway.
func (s *Synthesizer) Speakers(ctx context.Context) ([]tts.Speaker, error) {
	return s.inner.Speakers(ctx)
}

// Synthesize forwards to the wrapped synthesizer unless the breaker is open.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, styleID int, prosody tts.Prosody) ([]byte, error) {
	var audio []byte
	err := s.breaker.Execute(func() error {
		var err error
		audio, err = s.inner.Synthesize(ctx, text, styleID, prosody)
		return err
	})
	return audio, err
}

// State reports the breaker state.
func (s *Synthesizer) State() State {
	return s.breaker.State()
}
