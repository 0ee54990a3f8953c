// Package similarity scores how closely a candidate name matches a user query.
package similarity

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Score returns a similarity in [0,1] between candidate and query.
//
// The first matching rule wins:
//  1. candidate starts with query:    0.9 + 0.1*len(query)/len(candidate)
//  2. candidate contains query:       0.6 + 0.3*len(query)/len(candidate)
//  3. otherwise:                      1 - levenshtein/max(len)
//
// Comparison is case-insensitive and lengths are counted in runes. The
// scorer is deliberately asymmetric: Score(a, b) and Score(b, a) differ
// whenever one string is a prefix or substring of the other.
func Score(candidate, query string) float64 {
	c := strings.ToLower(candidate)
	q := strings.ToLower(query)

	cLen := utf8.RuneCountInString(c)
	qLen := utf8.RuneCountInString(q)

	// An empty query carries no prefix evidence; it falls through to the
	// edit-distance rule.
	if qLen > 0 {
		ratio := float64(qLen) / float64(cLen)
		if strings.HasPrefix(c, q) {
			return clamp(0.9 + 0.1*ratio)
		}
		if strings.Contains(c, q) {
			return clamp(0.6 + 0.3*ratio)
		}
	}

	longest := max(cLen, qLen)
	if longest == 0 {
		return 1.0
	}
	d := levenshtein.ComputeDistance(c, q)
	return clamp(1 - float64(d)/float64(longest))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
