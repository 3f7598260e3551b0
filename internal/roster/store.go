package roster

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// snapshot is the on-disk YAML layout.
//
// Example:
//
//	narrators:
//	  - name: 田中太郎
//	    aliases: [太郎, タロちゃん]
//	    gender: male
//	    portrait: 主人公の高校生。明るい性格。
type snapshot struct {
	Narrators Roster `yaml:"narrators"`
}

// LoadFile reads a roster snapshot from disk.
func LoadFile(path string) (Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("roster: open snapshot %q: %w", path, err)
	}
	defer f.Close()

	r, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("roster: parse snapshot %q: %w", path, err)
	}
	return r, nil
}

// LoadFromReader parses a roster snapshot from an [io.Reader]. Unknown keys
// are rejected. The result is normalised and validated; gender strings are
// accepted in any form [ParseGender] understands.
func LoadFromReader(r io.Reader) (Roster, error) {
	var s snapshot
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("roster: decode yaml: %w", err)
	}
	out := Normalize(s.Narrators)
	if err := ValidateRoster(out); err != nil {
		return nil, fmt.Errorf("roster: invalid snapshot: %w", err)
	}
	return out, nil
}

// SaveFile writes r to path as YAML, creating parent directories. The file
// is written to a temporary sibling first and renamed into place.
func SaveFile(path string, r Roster) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(snapshot{Narrators: r}); err != nil {
		return fmt.Errorf("roster: encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("roster: encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("roster: create snapshot dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("roster: write snapshot %q: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("roster: write snapshot %q: %w", path, err)
	}
	return nil
}
