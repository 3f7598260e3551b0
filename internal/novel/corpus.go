package novel

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"unicode"
)

// DefaultPattern selects corpus files when no pattern is configured.
const DefaultPattern = "*.txt"

// ListCorpus returns the files to process for path. A regular file is
// returned as the sole entry. A directory is globbed with pattern (default
// [DefaultPattern]) and the matches are returned in natural order, so
// "2.txt" comes before "10.txt".
func ListCorpus(path, pattern string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("novel: stat corpus %q: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	if pattern == "" {
		pattern = DefaultPattern
	}

	matches, err := filepath.Glob(filepath.Join(path, pattern))
	if err != nil {
		return nil, fmt.Errorf("novel: glob %q: %w", pattern, err)
	}
	files := matches[:0]
	for _, m := range matches {
		fi, err := os.Stat(m)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		files = append(files, m)
	}
	slices.SortStableFunc(files, func(a, b string) int {
		return NaturalCompare(filepath.Base(a), filepath.Base(b))
	})
	return files, nil
}

// NaturalCompare orders a and b with digit runs compared by numeric value
// and everything else compared rune by rune. Equal numeric values with
// different zero padding fall back to the shorter run first.
func NaturalCompare(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		if isDigit(ra[i]) && isDigit(rb[j]) {
			si, sj := i, j
			for i < len(ra) && isDigit(ra[i]) {
				i++
			}
			for j < len(rb) && isDigit(rb[j]) {
				j++
			}
			if c := compareDigits(ra[si:i], rb[sj:j]); c != 0 {
				return c
			}
			continue
		}
		if ra[i] != rb[j] {
			if ra[i] < rb[j] {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case len(ra)-i < len(rb)-j:
		return -1
	case len(ra)-i > len(rb)-j:
		return 1
	}
	return 0
}

// compareDigits compares two digit runs numerically without overflow.
func compareDigits(x, y []rune) int {
	tx, ty := trimZeros(x), trimZeros(y)
	if len(tx) != len(ty) {
		if len(tx) < len(ty) {
			return -1
		}
		return 1
	}
	for k := range tx {
		if tx[k] != ty[k] {
			if tx[k] < ty[k] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(x) < len(y):
		return -1
	case len(x) > len(y):
		return 1
	}
	return 0
}

func trimZeros(r []rune) []rune {
	for len(r) > 1 && r[0] == '0' {
		r = r[1:]
	}
	return r
}

// isDigit accepts ASCII digits only; full-width digits sort as text.
func isDigit(r rune) bool {
	return r < unicode.MaxASCII && r >= '0' && r <= '9'
}
