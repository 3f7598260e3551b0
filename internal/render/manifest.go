package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/scriptvox/internal/novel"
	"github.com/MrWong99/scriptvox/internal/roster"
	"github.com/MrWong99/scriptvox/internal/voice"
)

// ManifestFile is the script manifest's name inside a document directory.
const ManifestFile = "script.yaml"

// Manifest is the attributed script of one document.
type Manifest struct {
	// Run identifies the pipeline run that produced the manifest.
	Run       string             `yaml:"run,omitempty"`
	Source    string             `yaml:"source"`
	Narrators roster.Roster      `yaml:"narrators"`
	Voices    []voice.Assignment `yaml:"voices"`
	Lines     []ManifestLine     `yaml:"lines"`
	Chunks    []Chunk            `yaml:"chunks,omitempty"`
}

// ManifestLine is one non-blank sentence. Voice is nil when the speaker has
// no assignment yet.
type ManifestLine struct {
	Index   int    `yaml:"index"`
	Speaker string `yaml:"speaker"`
	Voice   *int   `yaml:"voice,omitempty"`
	Text    string `yaml:"text"`
}

// BuildManifest assembles the manifest for n. Only voices used by n are
// listed.
func BuildManifest(n *novel.Novel, assignments []voice.Assignment, chunks []Chunk) Manifest {
	byKey := make(map[string]voice.Assignment, len(assignments))
	for _, a := range assignments {
		byKey[a.Key] = a
	}

	m := Manifest{Source: n.Path, Narrators: n.Narrators, Chunks: chunks}
	used := make(map[string]bool)
	for i, s := range n.Sentences {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		line := ManifestLine{Index: i, Speaker: Group{Narrator: s.Narrator}.Name(), Text: s.Text}
		key := voice.SpeakerKey(s.Narrator)
		if a, ok := byKey[key]; ok {
			line.Voice = &a.ID
			if !used[key] {
				used[key] = true
				m.Voices = append(m.Voices, a)
			}
		}
		m.Lines = append(m.Lines, line)
	}
	return m
}

// WriteManifest writes m to dir/[ManifestFile].
func WriteManifest(dir string, m Manifest) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("render: encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("render: encode manifest: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("render: create manifest dir: %w", err)
	}
	path := filepath.Join(dir, ManifestFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("render: write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("render: write manifest: %w", err)
	}
	return nil
}
