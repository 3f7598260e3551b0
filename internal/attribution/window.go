package attribution

import (
	"strings"

	"github.com/MrWong99/scriptvox/internal/novel"
	"github.com/MrWong99/scriptvox/internal/roster"
)

// ContextLine is one already-attributed sentence before the target.
type ContextLine struct {
	// Speaker is the narrator's name, or "" for narration.
	Speaker string
	Text    string
}

// Window is the bounded context shown to the model for one target sentence.
type Window struct {
	Pre    []ContextLine
	Target string
	After  []string
}

// BuildWindow returns the context for sentences[i]: up to pre non-blank
// sentences before it with their committed speakers, and up to after
// non-blank sentences following it as raw text. It does not modify
// sentences.
func BuildWindow(sentences []novel.Sentence, i, pre, after int) Window {
	w := Window{Target: sentences[i].Text}

	for j := i - 1; j >= 0 && len(w.Pre) < pre; j-- {
		s := sentences[j]
		if s.Text == "" {
			continue
		}
		speaker := ""
		if !roster.IsNarration(s.Narrator) {
			speaker = s.Narrator.Name
		}
		w.Pre = append(w.Pre, ContextLine{Speaker: speaker, Text: s.Text})
	}
	// Collected newest first.
	for l, r := 0, len(w.Pre)-1; l < r; l, r = l+1, r-1 {
		w.Pre[l], w.Pre[r] = w.Pre[r], w.Pre[l]
	}

	for j := i + 1; j < len(sentences) && len(w.After) < after; j++ {
		if sentences[j].Text == "" {
			continue
		}
		w.After = append(w.After, sentences[j].Text)
	}
	return w
}

// PreText renders the pre-context as "speaker<TAB>text" lines.
func (w Window) PreText() string {
	lines := make([]string, len(w.Pre))
	for i, l := range w.Pre {
		lines[i] = l.Speaker + "\t" + l.Text
	}
	return strings.Join(lines, "\n")
}

// AfterText renders the after-context as raw lines.
func (w Window) AfterText() string {
	return strings.Join(w.After, "\n")
}

// IsDialogue reports whether text, once trimmed, is bounded by the corner
// brackets that mark spoken dialogue.
func IsDialogue(text string) bool {
	text = strings.TrimSpace(text)
	return strings.HasPrefix(text, "「") && strings.HasSuffix(text, "」")
}
