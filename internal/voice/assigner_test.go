package voice_test

import (
	"context"
	"sync"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/scriptvox/internal/observe"
	"github.com/MrWong99/scriptvox/internal/roster"
	"github.com/MrWong99/scriptvox/internal/voice"
	"github.com/MrWong99/scriptvox/pkg/provider/tts"
)

func newAssigner(t *testing.T, speakers []tts.Speaker, opts ...voice.AssignerOption) (*voice.Assigner, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	opts = append(opts, voice.WithAssignerMetrics(m))
	return voice.NewAssigner(mustCatalog(t, speakers), opts...), reader
}

func character(name string, aliases ...string) *roster.Narrator {
	return &roster.Narrator{Name: name, Aliases: aliases, Gender: roster.GenderOther}
}

func TestSelect_Idempotent(t *testing.T) {
	t.Parallel()

	a, _ := newAssigner(t, testSpeakers())
	ctx := context.Background()

	first := a.Select(ctx, character("太郎", "タロ", "太"))
	for range 3 {
		if got := a.Select(ctx, character("太郎", "太", "タロ")); got != first {
			t.Fatalf("Select() = %d after %d", got, first)
		}
	}
	if n := len(a.Assignments()); n != 1 {
		t.Errorf("len(Assignments()) = %d, want 1", n)
	}
}

func TestSelect_HeuristicAvoidsReuse(t *testing.T) {
	t.Parallel()

	a, _ := newAssigner(t, testSpeakers())
	ctx := context.Background()

	// Both fall through to the neutral list: ずんだもん/ノーマル, then 四国めたん/ノーマル.
	if got := a.Select(ctx, character("A")); got != 3 {
		t.Errorf("Select(A) = %d, want 3", got)
	}
	if got := a.Select(ctx, character("B")); got != 2 {
		t.Errorf("Select(B) = %d, want 2", got)
	}
	// Neutral voices taken; round robin finds the first unused id.
	if got := a.Select(ctx, character("C")); got != 0 {
		t.Errorf("Select(C) = %d, want 0", got)
	}

	as, ok := a.Lookup("C")
	if !ok || as.Path != voice.PathRoundRobin || as.Speaker != "四国めたん" || as.Style != "あまあま" {
		t.Errorf("Lookup(C) = %+v, %v", as, ok)
	}
}

func TestSelect_DirectNameAndOverride(t *testing.T) {
	t.Parallel()

	a, _ := newAssigner(t, testSpeakers(),
		voice.WithOverride("花子", voice.Candidate{Speaker: "四国めたん", Style: "あまあま"}),
	)
	ctx := context.Background()

	if got := a.Select(ctx, character("ずんだもん")); got != 1 {
		t.Errorf("Select(ずんだもん) = %d, want 1 (lowest id of the named speaker)", got)
	}
	if got := a.Select(ctx, character("花子")); got != 0 {
		t.Errorf("Select(花子) = %d, want override 0", got)
	}
}

func TestSelect_Narration(t *testing.T) {
	t.Parallel()

	a, _ := newAssigner(t, testSpeakers(),
		voice.WithNarrationVoice(voice.Candidate{Speaker: "四国めたん", Style: "ノーマル"}),
	)
	ctx := context.Background()

	if got := a.Select(ctx, roster.Narration); got != 2 {
		t.Errorf("Select(Narration) = %d, want 2", got)
	}
	if got := a.Select(ctx, nil); got != 2 {
		t.Errorf("Select(nil) = %d, want 2", got)
	}
	if _, ok := a.Lookup(voice.NarrationKey); !ok {
		t.Error("narration key not recorded")
	}
}

func TestSelect_RoundRobinThenLeastUsed(t *testing.T) {
	t.Parallel()

	a, reader := newAssigner(t, []tts.Speaker{
		{Name: "テストA", Styles: []tts.Style{{ID: 10, Name: "x"}}},
		{Name: "テストB", Styles: []tts.Style{{ID: 20, Name: "y"}}},
	})
	ctx := context.Background()

	want := []struct {
		id   int
		path voice.Path
	}{
		{10, voice.PathRoundRobin},
		{20, voice.PathRoundRobin},
		{10, voice.PathLeastUsed},
		{20, voice.PathLeastUsed},
	}
	for i, name := range []string{"x", "y", "z", "w"} {
		got := a.Select(ctx, character(name))
		as, _ := a.Lookup(name)
		if got != want[i].id || as.Path != want[i].path {
			t.Errorf("Select(%s) = %d via %s, want %d via %s", name, got, as.Path, want[i].id, want[i].path)
		}
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "scriptvox.voice.assignments" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				path, _ := dp.Attributes.Value("path")
				counts[path.AsString()] += dp.Value
			}
		}
	}
	if counts["round_robin"] != 2 || counts["least_used"] != 2 {
		t.Errorf("assignment counts = %v, want 2 round_robin and 2 least_used", counts)
	}
}

func TestSelect_SaturatedPoolReusesHeuristic(t *testing.T) {
	t.Parallel()

	a, _ := newAssigner(t, []tts.Speaker{
		{Name: "ずんだもん", Styles: []tts.Style{{ID: 3, Name: "ノーマル"}}},
	})
	ctx := context.Background()

	a.Select(ctx, character("A"))
	a.Select(ctx, character("B"))
	as, _ := a.Lookup("B")
	if as.ID != 3 || as.Path != voice.PathHeuristic {
		t.Errorf("Lookup(B) = %+v, want id 3 via heuristic", as)
	}
}

func TestAssignments_SortedAndConcurrent(t *testing.T) {
	t.Parallel()

	a, _ := newAssigner(t, testSpeakers())
	ctx := context.Background()

	names := []string{"d", "b", "a", "c", "e", "f"}
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Go(func() { a.Select(ctx, character(name)) })
	}
	wg.Wait()

	got := a.Assignments()
	if len(got) != len(names) {
		t.Fatalf("len(Assignments()) = %d, want %d", len(got), len(names))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Key >= got[i].Key {
			t.Errorf("Assignments() not sorted: %q before %q", got[i-1].Key, got[i].Key)
		}
	}
	c := mustCatalog(t, testSpeakers())
	ids := map[int]bool{}
	for _, as := range got {
		if _, ok := c.Entry(as.ID); !ok {
			t.Errorf("assignment %+v outside the catalog", as)
		}
		ids[as.ID] = true
	}
	if len(ids) != 4 {
		t.Errorf("distinct ids = %d, want the whole pool of 4", len(ids))
	}
}
