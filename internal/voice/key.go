package voice

import (
	"slices"
	"strings"

	"github.com/MrWong99/scriptvox/internal/roster"
)

// NarrationKey is the speaker key shared by narration and nil narrators.
const NarrationKey = "<narration>"

// SpeakerKey derives the identity used to deduplicate voice assignment. Two
// records with the same name and the same alias set share a key regardless
// of alias order or record identity.
func SpeakerKey(n *roster.Narrator) string {
	if roster.IsNarration(n) {
		return NarrationKey
	}
	if len(n.Aliases) == 0 {
		return n.Name
	}
	aliases := slices.Clone(n.Aliases)
	slices.Sort(aliases)
	aliases = slices.Compact(aliases)
	return n.Name + "|" + strings.Join(aliases, "|")
}
