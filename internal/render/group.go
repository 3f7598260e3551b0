package render

import (
	"strings"

	"github.com/MrWong99/scriptvox/internal/novel"
	"github.com/MrWong99/scriptvox/internal/roster"
	"github.com/MrWong99/scriptvox/internal/voice"
)

// Group is every line spoken under one speaker key within a document.
type Group struct {
	Key      string
	Narrator *roster.Narrator
	Lines    []string
}

// Name is the speaker's display name.
func (g Group) Name() string {
	if roster.IsNarration(g.Narrator) {
		return roster.NarrationName
	}
	return g.Narrator.Name
}

// Groups collects the non-blank sentences of n by speaker key, in order of
// each speaker's first appearance.
func Groups(n *novel.Novel) []Group {
	var out []Group
	idx := make(map[string]int)
	for _, s := range n.Sentences {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		key := voice.SpeakerKey(s.Narrator)
		i, ok := idx[key]
		if !ok {
			i = len(out)
			idx[key] = i
			out = append(out, Group{Key: key, Narrator: s.Narrator})
		}
		out[i].Lines = append(out[i].Lines, s.Text)
	}
	return out
}
