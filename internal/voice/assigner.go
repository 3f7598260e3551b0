package voice

import (
	"cmp"
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/MrWong99/scriptvox/internal/observe"
	"github.com/MrWong99/scriptvox/internal/roster"
)

// Path names the rule that produced an assignment.
type Path string

const (
	PathHeuristic  Path = "heuristic"
	PathRoundRobin Path = "round_robin"
	PathLeastUsed  Path = "least_used"
)

// Assignment is the voice chosen for one speaker key.
type Assignment struct {
	Key     string `yaml:"key"`
	ID      int    `yaml:"id"`
	Speaker string `yaml:"speaker"`
	Style   string `yaml:"style"`
	Path    Path   `yaml:"path"`
}

// AssignerOption configures an [Assigner].
type AssignerOption func(*Assigner)

// WithOverride pins narrator name to a voice. Repeated calls for the same
// name add further candidates in order.
func WithOverride(name string, c Candidate) AssignerOption {
	return func(a *Assigner) {
		a.overrides[name] = append(a.overrides[name], c)
	}
}

// WithNarrationVoice puts c ahead of the built-in narration voices.
func WithNarrationVoice(c Candidate) AssignerOption {
	return func(a *Assigner) {
		a.narration = append(a.narration, c)
	}
}

// WithAssignerMetrics records assignments on m instead of
// [observe.DefaultMetrics].
func WithAssignerMetrics(m *observe.Metrics) AssignerOption {
	return func(a *Assigner) {
		a.metrics = m
	}
}

// Assigner maps speaker keys to style ids for the lifetime of a run. Once a
// key has an id it never changes. Safe for concurrent use.
type Assigner struct {
	catalog   *Catalog
	overrides map[string][]Candidate
	narration []Candidate
	metrics   *observe.Metrics

	mu     sync.Mutex
	byKey  map[string]Assignment
	usage  map[int]int
	cursor int
}

// NewAssigner creates an Assigner over c.
func NewAssigner(c *Catalog, opts ...AssignerOption) *Assigner {
	a := &Assigner{
		catalog:   c,
		overrides: make(map[string][]Candidate),
		byKey:     make(map[string]Assignment),
		usage:     make(map[int]int),
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	return a
}

// Select returns the style id for n's speaker key, assigning one on first
// use.
func (a *Assigner) Select(ctx context.Context, n *roster.Narrator) int {
	key := SpeakerKey(n)

	a.mu.Lock()
	defer a.mu.Unlock()

	if as, ok := a.byKey[key]; ok {
		return as.ID
	}

	id, path := a.pick(n)
	e, _ := a.catalog.Entry(id)
	as := Assignment{Key: key, ID: id, Speaker: e.Speaker, Style: e.Style, Path: path}
	a.byKey[key] = as
	a.usage[id]++

	a.metrics.RecordVoiceAssignment(ctx, string(path))
	observe.Logger(ctx).Debug("voice: assigned",
		"key", key, "id", id, "speaker", e.Speaker, "style", e.Style, "path", path)
	return id
}

// pick must be called with mu held.
func (a *Assigner) pick(n *roster.Narrator) (int, Path) {
	for _, c := range Candidates(n, a.overrides, a.narration) {
		id, ok := a.catalog.Resolve(c.Speaker, c.Style)
		if !ok {
			continue
		}
		if a.usage[id] > 0 && len(a.usage) < a.catalog.Size() {
			continue
		}
		return id, PathHeuristic
	}

	ids := a.catalog.ids
	for range ids {
		id := ids[a.cursor%len(ids)]
		a.cursor++
		if a.usage[id] == 0 {
			return id, PathRoundRobin
		}
	}

	best := ids[0]
	for _, id := range ids[1:] {
		if a.usage[id] < a.usage[best] {
			best = id
		}
	}
	slog.Debug("voice: catalog exhausted, sharing least-used voice", "id", best, "uses", a.usage[best])
	return best, PathLeastUsed
}

// Lookup returns the assignment for key, if any.
func (a *Assigner) Lookup(key string) (Assignment, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	as, ok := a.byKey[key]
	return as, ok
}

// Assignments returns every assignment made so far, sorted by key.
func (a *Assigner) Assignments() []Assignment {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.SortedFunc(maps.Values(a.byKey), func(x, y Assignment) int {
		return cmp.Compare(x.Key, y.Key)
	})
}
