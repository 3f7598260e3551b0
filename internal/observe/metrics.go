// Package observe provides application-wide observability primitives for
// scriptvox: OpenTelemetry metrics, tracing, trace-aware logging, and HTTP
// instrumentation for both the outbound provider clients and the optional
// metrics/health server.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is installed by [InitProvider] so that a long corpus run
// can be scraped on /metrics. A package-level default [Metrics] instance
// ([DefaultMetrics]) is used when callers do not inject one; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all scriptvox metrics.
const meterName = "github.com/MrWong99/scriptvox"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use.
type Metrics struct {
	// --- Provider latency ---

	// LLMDuration tracks language-model completion latency.
	LLMDuration metric.Float64Histogram

	// TTSDuration tracks synthesis latency per chunk.
	TTSDuration metric.Float64Histogram

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Pipeline ---

	// AttributionSentences counts attributed sentences by resolution path:
	//   attribute.String("path", "inferred"|"fast_path"|"fallback")
	AttributionSentences metric.Int64Counter

	// AttributionFallbacks counts sentences that fell back to narration
	// because inference failed. Use with attribute.String("failure", ...).
	AttributionFallbacks metric.Int64Counter

	// RosterExtractions counts extraction calls by outcome:
	//   attribute.String("outcome", "updated"|"retained"), attribute.String("failure", ...)
	RosterExtractions metric.Int64Counter

	// VoiceAssignments counts new speaker-to-voice assignments by path:
	//   attribute.String("path", "heuristic"|"round_robin"|"least_used")
	VoiceAssignments metric.Int64Counter

	// RenderChunks counts synthesised and written audio chunks.
	RenderChunks metric.Int64Counter

	// RenderChunkFailures counts chunks skipped after a synthesis or write
	// failure. Use with attribute.String("stage", "synthesize"|"write").
	RenderChunkFailures metric.Int64Counter

	// --- HTTP ---

	// HTTPClientDuration tracks outbound request latency. Use with attributes:
	//   attribute.String("method", ...), attribute.String("host", ...), attribute.Int("status", ...)
	HTTPClientDuration metric.Float64Histogram

	// HTTPRequestDuration tracks metrics/health server request latency.
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) for model
// inference and synthesis, which range from sub-second to minutes.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.LLMDuration, err = m.Float64Histogram("scriptvox.llm.duration",
		metric.WithDescription("Latency of LLM completions."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TTSDuration, err = m.Float64Histogram("scriptvox.tts.duration",
		metric.WithDescription("Latency of speech synthesis per chunk."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPClientDuration, err = m.Float64Histogram("scriptvox.http.client.duration",
		metric.WithDescription("Outbound HTTP request latency by method, host, and status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("scriptvox.http.request.duration",
		metric.WithDescription("Metrics/health server request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	// Counters.
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&met.ProviderRequests, "scriptvox.provider.requests", "Total provider API requests by provider, kind, and status."},
		{&met.ProviderErrors, "scriptvox.provider.errors", "Total provider errors by provider and kind."},
		{&met.AttributionSentences, "scriptvox.attribution.sentences", "Attributed sentences by resolution path."},
		{&met.AttributionFallbacks, "scriptvox.attribution.fallbacks", "Sentences defaulted to narration after a failed inference."},
		{&met.RosterExtractions, "scriptvox.roster.extractions", "Roster extraction calls by outcome."},
		{&met.VoiceAssignments, "scriptvox.voice.assignments", "Speaker-to-voice assignments by resolution path."},
		{&met.RenderChunks, "scriptvox.render.chunks", "Audio chunks synthesised and written."},
		{&met.RenderChunkFailures, "scriptvox.render.chunk_failures", "Audio chunks skipped after a failure."},
	}
	for _, c := range counters {
		if *c.dst, err = m.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, err
		}
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRequest records a provider request counter increment with
// the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError records a provider error counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordAttribution records one attributed sentence. failure is only
// attached for the fallback path.
func (m *Metrics) RecordAttribution(ctx context.Context, path, failure string) {
	m.AttributionSentences.Add(ctx, 1, metric.WithAttributes(attribute.String("path", path)))
	if failure != "" {
		m.AttributionFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("failure", failure)))
	}
}

// RecordRosterExtraction records one extraction call.
func (m *Metrics) RecordRosterExtraction(ctx context.Context, outcome, failure string) {
	m.RosterExtractions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("outcome", outcome),
			attribute.String("failure", failure),
		),
	)
}

// RecordVoiceAssignment records a new speaker-to-voice assignment.
func (m *Metrics) RecordVoiceAssignment(ctx context.Context, path string) {
	m.VoiceAssignments.Add(ctx, 1, metric.WithAttributes(attribute.String("path", path)))
}

// RecordChunk records a rendered chunk, or a skipped one when stage is
// non-empty.
func (m *Metrics) RecordChunk(ctx context.Context, stage string) {
	if stage == "" {
		m.RenderChunks.Add(ctx, 1)
		return
	}
	m.RenderChunkFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}
