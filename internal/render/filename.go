package render

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	nonWord     = regexp.MustCompile(`[^\p{L}\p{N}_\-]+`)
	underscores = regexp.MustCompile(`_+`)
)

// SafeFilename reduces name to letters, digits, '_' and '-'. Anything else
// collapses to a single '_'; the result never starts or ends with '_' and
// is "narrator" when nothing is left.
func SafeFilename(name string) string {
	s := nonWord.ReplaceAllString(name, "_")
	s = underscores.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "narrator"
	}
	return s
}

// FileName is the audio file name for one chunk.
func FileName(fileIndex, speakerOrdinal, chunkOrdinal int, speaker string) string {
	return fmt.Sprintf("%03d_%02d_%03d_%s.wav", fileIndex, speakerOrdinal, chunkOrdinal, SafeFilename(speaker))
}
