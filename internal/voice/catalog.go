// Package voice maps speakers to synthesizer voices.
//
// A [Catalog] is the read-only set of styles the engine exposes. An
// [Assigner] picks one style id per speaker key for a whole run: it walks a
// heuristic candidate list (configured overrides, the character's own name,
// a gender × age preference table, a neutral list), prefers voices nobody
// else uses while unused ones remain, then falls back to round robin and
// finally to the least-used voice. The same key always gets the same id.
package voice

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/MrWong99/scriptvox/pkg/provider/tts"
)

// ErrEmptyCatalog is returned by [NewCatalog] when the engine exposes no
// styles. Voice assignment is impossible without at least one.
var ErrEmptyCatalog = errors.New("voice: catalog has no styles")

// Entry is one selectable voice.
type Entry struct {
	ID      int
	Speaker string
	Style   string
}

// String formats e as "id: speaker / style".
func (e Entry) String() string {
	return fmt.Sprintf("%d: %s / %s", e.ID, e.Speaker, e.Style)
}

// Catalog is an immutable index over the engine's styles. Safe for
// concurrent use.
type Catalog struct {
	entries   []Entry            // sorted by ID
	byID      map[int]Entry
	bySpeaker map[string][]Entry // each sorted by ID
	ids       []int
}

// NewCatalog indexes speakers. A style id that appears twice keeps its first
// occurrence.
func NewCatalog(speakers []tts.Speaker) (*Catalog, error) {
	c := &Catalog{
		byID:      make(map[int]Entry),
		bySpeaker: make(map[string][]Entry),
	}
	for _, sp := range speakers {
		for _, st := range sp.Styles {
			if prev, dup := c.byID[st.ID]; dup {
				slog.Warn("voice: duplicate style id in catalog",
					"id", st.ID, "kept", prev.Speaker+"/"+prev.Style, "dropped", sp.Name+"/"+st.Name)
				continue
			}
			e := Entry{ID: st.ID, Speaker: sp.Name, Style: st.Name}
			c.byID[st.ID] = e
			c.entries = append(c.entries, e)
			c.bySpeaker[sp.Name] = append(c.bySpeaker[sp.Name], e)
		}
	}
	if len(c.entries) == 0 {
		return nil, ErrEmptyCatalog
	}

	byID := func(a, b Entry) int { return a.ID - b.ID }
	slices.SortFunc(c.entries, byID)
	for name := range c.bySpeaker {
		slices.SortFunc(c.bySpeaker[name], byID)
	}
	c.ids = make([]int, len(c.entries))
	for i, e := range c.entries {
		c.ids[i] = e.ID
	}
	return c, nil
}

// Resolve returns the style id for speaker. An empty hint selects the
// speaker's lowest id; otherwise the first style (by id) whose name
// contains hint, or the lowest id when none does. ok is false for an unknown
// speaker.
func (c *Catalog) Resolve(speaker, hint string) (id int, ok bool) {
	styles := c.bySpeaker[speaker]
	if len(styles) == 0 {
		return 0, false
	}
	if hint != "" {
		for _, e := range styles {
			if strings.Contains(e.Style, hint) {
				return e.ID, true
			}
		}
	}
	return styles[0].ID, true
}

// Entry returns the entry for id.
func (c *Catalog) Entry(id int) (Entry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// Entries returns all entries sorted by id.
func (c *Catalog) Entries() []Entry {
	return slices.Clone(c.entries)
}

// IDs returns all style ids in ascending order.
func (c *Catalog) IDs() []int {
	return slices.Clone(c.ids)
}

// Size is the number of distinct style ids.
func (c *Catalog) Size() int {
	return len(c.ids)
}
