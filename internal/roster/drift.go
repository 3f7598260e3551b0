package roster

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// NamePair is two roster names suspected to denote the same character.
type NamePair struct {
	A, B   string
	Score  float64
	Reason string
}

// SimilarNames reports pairs of distinct narrators whose names look like
// naming drift: one name contains the other, their Jaro-Winkler similarity
// is at least threshold, or their Double Metaphone codes match (Latin-script
// names only). Aliases take part, so "太郎" listed as an alias of one record
// and as the name of another is reported. The roster is not modified.
func SimilarNames(r Roster, threshold float64) []NamePair {
	var pairs []NamePair
	for i := 0; i < len(r); i++ {
		for j := i + 1; j < len(r); j++ {
			if p, ok := comparePair(r[i], r[j], threshold); ok {
				pairs = append(pairs, p)
			}
		}
	}
	return pairs
}

func comparePair(a, b Narrator, threshold float64) (NamePair, bool) {
	best := NamePair{A: a.Name, B: b.Name}
	found := false
	consider := func(score float64, reason string) {
		if !found || score > best.Score {
			best.Score = score
			best.Reason = reason
			found = true
		}
	}

	for _, x := range append([]string{a.Name}, a.Aliases...) {
		for _, y := range append([]string{b.Name}, b.Aliases...) {
			lx, ly := strings.ToLower(x), strings.ToLower(y)
			if lx == "" || ly == "" {
				continue
			}
			if lx == ly {
				consider(1, "shared name")
				continue
			}
			if strings.Contains(lx, ly) || strings.Contains(ly, lx) {
				consider(matchr.JaroWinkler(lx, ly, false), "substring")
				continue
			}
			if s := matchr.JaroWinkler(lx, ly, false); s >= threshold {
				consider(s, "similar spelling")
				continue
			}
			if phoneticMatch(lx, ly) {
				consider(matchr.JaroWinkler(lx, ly, false), "phonetic")
			}
		}
	}
	return best, found
}

// phoneticMatch reports whether any Double Metaphone code of x matches one
// of y. Non-Latin names produce empty codes and never match.
func phoneticMatch(x, y string) bool {
	xp, xs := matchr.DoubleMetaphone(x)
	yp, ys := matchr.DoubleMetaphone(y)
	for _, c := range []string{xp, xs} {
		if c == "" {
			continue
		}
		if c == yp || c == ys {
			return true
		}
	}
	return false
}
