// Package novel loads source texts into ordered sentences and lists a corpus
// directory in reading order.
package novel

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MrWong99/scriptvox/internal/roster"
)

// maxLineBytes bounds a single input line. Japanese web novels put whole
// paragraphs on one line, so the bufio default of 64 KiB is too small.
const maxLineBytes = 1 << 20

// Sentence is one input line.
type Sentence struct {
	// Text is the trimmed line. Immutable once loaded.
	Text string

	// Narrator is nil until attribution runs. Afterwards it points either at
	// [roster.Narration] or into the owning Novel's Narrators slice.
	Narrator *roster.Narrator
}

// Novel is one source document.
type Novel struct {
	// Path is the file the novel was loaded from.
	Path string

	// Stem is the base file name without extension. It names the output
	// directory.
	Stem string

	// Sentences in document order. Order defines the attribution context
	// window.
	Sentences []Sentence

	// Narrators is the roster snapshot active when attribution ran.
	Narrators roster.Roster
}

// Load reads the file at path.
func Load(path string) (*Novel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("novel: open %q: %w", path, err)
	}
	defer f.Close()

	n, err := LoadFromReader(f, path)
	if err != nil {
		return nil, fmt.Errorf("novel: read %q: %w", path, err)
	}
	return n, nil
}

// LoadFromReader reads UTF-8 text from r, one sentence per line. Each line is
// trimmed; blank lines are kept so sentence indices match line numbers.
// A leading byte-order mark is removed. path only sets Path and Stem.
func LoadFromReader(r io.Reader, path string) (*Novel, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	n := &Novel{Path: path, Stem: Stem(path)}
	first := true
	for sc.Scan() {
		line := sc.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		n.Sentences = append(n.Sentences, Sentence{Text: strings.TrimSpace(line)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("novel: scan: %w", err)
	}
	return n, nil
}

// Lines returns the sentence texts in order.
func (n *Novel) Lines() []string {
	lines := make([]string, len(n.Sentences))
	for i, s := range n.Sentences {
		lines[i] = s.Text
	}
	return lines
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
