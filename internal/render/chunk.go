package render

import (
	"strings"
	"unicode/utf8"
)

// ChunkLines greedily packs trimmed, non-blank lines into newline-joined
// chunks. The rune count of a chunk's lines, separators excluded, stays at
// or below maxChars; a single longer line is never split and becomes its
// own chunk.
func ChunkLines(lines []string, maxChars int) []string {
	var (
		chunks []string
		cur    []string
		size   int
	)
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		n := utf8.RuneCountInString(l)
		if len(cur) > 0 && size+n > maxChars {
			chunks = append(chunks, strings.Join(cur, "\n"))
			cur, size = cur[:0], 0
		}
		cur = append(cur, l)
		size += n
	}
	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, "\n"))
	}
	return chunks
}
