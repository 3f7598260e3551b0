// Package roster holds the ordered set of characters ("narrators") known for
// a document or a whole corpus run.
//
// A [Roster] is a plain value: the pipeline passes it into each step and
// receives the updated roster back. Updates are wholesale; [Merge] keeps the
// previous roster whenever a fresh extraction comes back empty so that
// accumulated identities survive a bad model reply.
//
// Rosters are produced by an [Extractor] (language-model extraction over a
// chunk of text), seeded from and persisted to YAML snapshots ([LoadFile],
// [SaveFile]), and checked for suspected naming drift with [SimilarNames].
package roster

import (
	"strings"
)

// Gender classifies a narrator for voice selection.
type Gender string

const (
	GenderFemale  Gender = "female"
	GenderMale    Gender = "male"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

// IsValid reports whether g is a recognised gender value.
func (g Gender) IsValid() bool {
	switch g {
	case GenderFemale, GenderMale, GenderOther, GenderUnknown:
		return true
	}
	return false
}

// ParseGender normalises free text from a model reply or a snapshot.
// English values are matched case-insensitively and Japanese values
// 男/男性, 女/女性 and その他 are recognised. Anything else is GenderUnknown.
func ParseGender(s string) Gender {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "female", "f", "woman", "girl":
		return GenderFemale
	case "male", "m", "man", "boy":
		return GenderMale
	case "other", "nonbinary", "non-binary":
		return GenderOther
	}
	switch s {
	case "女", "女性":
		return GenderFemale
	case "男", "男性":
		return GenderMale
	case "その他":
		return GenderOther
	}
	return GenderUnknown
}

// Narrator is one character identity. Identity for matching is Name
// (case-sensitive exact match); Aliases are supplementary.
type Narrator struct {
	// Name is the canonical display name.
	Name string `yaml:"name" json:"name"`

	// Aliases are nicknames and alternate names, in insertion order.
	Aliases []string `yaml:"aliases,omitempty" json:"aliases"`

	// Gender drives voice selection.
	Gender Gender `yaml:"gender" json:"gender"`

	// Portrait is a free-text profile (personality, background, looks).
	Portrait string `yaml:"portrait,omitempty" json:"portrait"`
}

// NarrationName is the display name of the narration pseudo-entry.
const NarrationName = "ナレーター"

// Narration is the reserved pseudo-entry for lines that are not spoken by
// any character. It sits at index 0 of every attribution choice list and is
// identified by pointer, never by name.
var Narration = &Narrator{Name: NarrationName, Gender: GenderOther}

// IsNarration reports whether n is nil or the narration pseudo-entry.
func IsNarration(n *Narrator) bool {
	return n == nil || n == Narration
}

// Roster is an ordered list of narrators, unique by Name.
type Roster []Narrator

// Len returns the number of narrators.
func (r Roster) Len() int { return len(r) }

// Names returns the narrator names in roster order.
func (r Roster) Names() []string {
	names := make([]string, len(r))
	for i, n := range r {
		names[i] = n.Name
	}
	return names
}

// Index returns the position of the narrator named name, or -1.
func (r Roster) Index(name string) int {
	for i, n := range r {
		if n.Name == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of r so callers can hand out pointers into it
// without sharing alias slices with the source.
func (r Roster) Clone() Roster {
	if r == nil {
		return nil
	}
	out := make(Roster, len(r))
	for i, n := range r {
		out[i] = n
		if n.Aliases != nil {
			out[i].Aliases = append([]string(nil), n.Aliases...)
		}
	}
	return out
}
