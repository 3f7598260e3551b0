package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumWhere totals the data points of an Int64 sum whose attributes contain
// key=value. An empty key matches every point.
func sumWhere(t *testing.T, rm metricdata.ResourceMetrics, name, key, value string) int64 {
	t.Helper()
	met := findMetric(rm, name)
	if met == nil {
		t.Fatalf("metric %q not found", name)
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is not an int64 sum", name)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		if key != "" {
			v, ok := dp.Attributes.Value(attribute.Key(key))
			if !ok || v.AsString() != value {
				continue
			}
		}
		total += dp.Value
	}
	return total
}

func TestHistogramObservation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	histograms := []struct {
		name string
		h    metric.Float64Histogram
	}{
		{"scriptvox.llm.duration", m.LLMDuration},
		{"scriptvox.tts.duration", m.TTSDuration},
		{"scriptvox.http.client.duration", m.HTTPClientDuration},
		{"scriptvox.http.request.duration", m.HTTPRequestDuration},
	}
	for _, tc := range histograms {
		tc.h.Record(ctx, 0.8)
		tc.h.Record(ctx, 12.5)
	}

	rm := collect(t, reader)
	for _, tc := range histograms {
		t.Run(tc.name, func(t *testing.T) {
			met := findMetric(rm, tc.name)
			if met == nil {
				t.Fatalf("metric %q not found", tc.name)
			}
			hist, ok := met.Data.(metricdata.Histogram[float64])
			if !ok {
				t.Fatalf("metric %q is not a histogram", tc.name)
			}
			if len(hist.DataPoints) == 0 {
				t.Fatalf("metric %q has no data points", tc.name)
			}
			if got := hist.DataPoints[0].Count; got != 2 {
				t.Errorf("sample count = %d, want 2", got)
			}
		})
	}
}

func TestRecordProviderRequest(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordProviderRequest(ctx, "ollama", "llm", "ok")
	m.RecordProviderRequest(ctx, "ollama", "llm", "ok")
	m.RecordProviderRequest(ctx, "ollama", "llm", "error")
	m.RecordProviderError(ctx, "ollama", "llm")

	rm := collect(t, reader)
	if got := sumWhere(t, rm, "scriptvox.provider.requests", "status", "ok"); got != 2 {
		t.Errorf("ok requests = %d, want 2", got)
	}
	if got := sumWhere(t, rm, "scriptvox.provider.requests", "status", "error"); got != 1 {
		t.Errorf("error requests = %d, want 1", got)
	}
	if got := sumWhere(t, rm, "scriptvox.provider.errors", "kind", "llm"); got != 1 {
		t.Errorf("provider errors = %d, want 1", got)
	}
}

func TestRecordAttribution(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordAttribution(ctx, "inferred", "")
	m.RecordAttribution(ctx, "fast_path", "")
	m.RecordAttribution(ctx, "fast_path", "")
	m.RecordAttribution(ctx, "fallback", "schema_violation")

	rm := collect(t, reader)
	if got := sumWhere(t, rm, "scriptvox.attribution.sentences", "", ""); got != 4 {
		t.Errorf("sentences = %d, want 4", got)
	}
	if got := sumWhere(t, rm, "scriptvox.attribution.sentences", "path", "fast_path"); got != 2 {
		t.Errorf("fast_path sentences = %d, want 2", got)
	}
	if got := sumWhere(t, rm, "scriptvox.attribution.fallbacks", "failure", "schema_violation"); got != 1 {
		t.Errorf("fallbacks = %d, want 1", got)
	}
}

func TestRecordPipelineCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordRosterExtraction(ctx, "updated", "")
	m.RecordRosterExtraction(ctx, "retained", "malformed_json")
	m.RecordVoiceAssignment(ctx, "heuristic")
	m.RecordVoiceAssignment(ctx, "least_used")
	m.RecordChunk(ctx, "")
	m.RecordChunk(ctx, "")
	m.RecordChunk(ctx, "synthesize")

	rm := collect(t, reader)
	if got := sumWhere(t, rm, "scriptvox.roster.extractions", "outcome", "retained"); got != 1 {
		t.Errorf("retained extractions = %d, want 1", got)
	}
	if got := sumWhere(t, rm, "scriptvox.voice.assignments", "", ""); got != 2 {
		t.Errorf("assignments = %d, want 2", got)
	}
	if got := sumWhere(t, rm, "scriptvox.render.chunks", "", ""); got != 2 {
		t.Errorf("chunks = %d, want 2", got)
	}
	if got := sumWhere(t, rm, "scriptvox.render.chunk_failures", "stage", "synthesize"); got != 1 {
		t.Errorf("chunk failures = %d, want 1", got)
	}
}

func TestDefaultMetrics_ReturnsSameInstance(t *testing.T) {
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a == nil {
		t.Fatal("DefaultMetrics returned nil")
	}
	if a != b {
		t.Error("DefaultMetrics returned different instances")
	}
}
