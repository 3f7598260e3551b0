package observe

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/scriptvox/pkg/provider/llm"
	"github.com/MrWong99/scriptvox/pkg/provider/tts"
)

// statusOf maps a call result to the "status" attribute value.
func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "error"
	}
}

// LLM wraps an [llm.Provider] with a span, latency, and request/error
// counters per call.
type LLM struct {
	inner llm.Provider
	name  string
	m     *Metrics
}

var _ llm.Provider = (*LLM)(nil)

// WrapLLM returns p instrumented under the provider label name.
func WrapLLM(p llm.Provider, name string, m *Metrics) *LLM {
	return &LLM{inner: p, name: name, m: m}
}

// Complete forwards to the wrapped provider.
func (l *LLM) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	ctx, span := StartSpan(ctx, "llm.complete",
		trace.WithAttributes(
			attribute.String("provider", l.name),
			attribute.Int("messages", len(req.Messages)),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := l.inner.Complete(ctx, req)
	l.m.LLMDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("provider", l.name)))

	status := statusOf(err)
	l.m.RecordProviderRequest(ctx, l.name, "llm", status)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if status == "error" {
			l.m.RecordProviderError(ctx, l.name, "llm")
		}
		return nil, err
	}
	if resp != nil {
		span.SetAttributes(attribute.Int("tokens.total", resp.Usage.TotalTokens))
	}
	return resp, nil
}

// Capabilities forwards to the wrapped provider.
func (l *LLM) Capabilities() llm.ModelCapabilities {
	return l.inner.Capabilities()
}

// Synthesizer wraps a [tts.Synthesizer] with a span, latency, and
// request/error counters per call.
type Synthesizer struct {
	inner tts.Synthesizer
	name  string
	m     *Metrics
}

var _ tts.Synthesizer = (*Synthesizer)(nil)

// WrapSynthesizer returns s instrumented under the provider label name.
func WrapSynthesizer(s tts.Synthesizer, name string, m *Metrics) *Synthesizer {
	return &Synthesizer{inner: s, name: name, m: m}
}

// Speakers forwards to the wrapped synthesizer.
func (s *Synthesizer) Speakers(ctx context.Context) ([]tts.Speaker, error) {
	ctx, span := StartSpan(ctx, "tts.speakers", trace.WithAttributes(attribute.String("provider", s.name)))
	defer span.End()

	speakers, err := s.inner.Speakers(ctx)
	status := statusOf(err)
	s.m.RecordProviderRequest(ctx, s.name, "tts_catalog", status)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if status == "error" {
			s.m.RecordProviderError(ctx, s.name, "tts_catalog")
		}
	}
	return speakers, err
}

// Synthesize forwards to the wrapped synthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, styleID int, prosody tts.Prosody) ([]byte, error) {
	ctx, span := StartSpan(ctx, "tts.synthesize",
		trace.WithAttributes(
			attribute.String("provider", s.name),
			attribute.Int("style_id", styleID),
			attribute.Int("chars", len([]rune(text))),
		),
	)
	defer span.End()

	start := time.Now()
	audio, err := s.inner.Synthesize(ctx, text, styleID, prosody)
	s.m.TTSDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("provider", s.name)))

	status := statusOf(err)
	s.m.RecordProviderRequest(ctx, s.name, "tts", status)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if status == "error" {
			s.m.RecordProviderError(ctx, s.name, "tts")
		}
	}
	return audio, err
}
