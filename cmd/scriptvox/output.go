package main

import (
	"fmt"
	"io"

	"github.com/MrWong99/scriptvox/internal/roster"
	"github.com/MrWong99/scriptvox/internal/voice"
	"github.com/MrWong99/scriptvox/pkg/provider/tts"
)

// writeCatalog prints one "id: speaker / style" line per style, ordered by id.
func writeCatalog(w io.Writer, speakers []tts.Speaker) error {
	c, err := voice.NewCatalog(speakers)
	if err != nil {
		return err
	}
	for _, e := range c.Entries() {
		if _, err := fmt.Fprintln(w, e.String()); err != nil {
			return err
		}
	}
	return nil
}

// writeRoster prints "- name: gender" per narrator, with aliases when known.
func writeRoster(w io.Writer, r roster.Roster) {
	for _, n := range r {
		if len(n.Aliases) > 0 {
			fmt.Fprintf(w, "- %s: %s %v\n", n.Name, n.Gender, n.Aliases)
			continue
		}
		fmt.Fprintf(w, "- %s: %s\n", n.Name, n.Gender)
	}
}
