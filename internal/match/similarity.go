// Package match assigns bank transactions to invoice counterparties.
// Auto matches are computed on every read and never persisted; only manual
// overrides are stored, and they always win.
package match

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Similarity scores how alike two party names are, in [0,1].
type Similarity interface {
	Score(a, b string) float64
}

// LevenshteinSimilarity scores names by normalized edit distance, with
// shortcuts for exact and containment matches. Bank narrations routinely
// embed the full legal name ("ABC TRADERS PVT LTD" vs "ABC TRADERS"), which
// is why containment ranks just below exact.
type LevenshteinSimilarity struct{}

// Score implements Similarity.
func (LevenshteinSimilarity) Score(a, b string) float64 {
	a = normalizeName(a)
	b = normalizeName(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.9
	}

	dist := levenshtein.DistanceForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	score := 1 - float64(dist)/float64(maxLen)
	if score < 0 {
		return 0
	}
	return score
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(strings.TrimSpace(s))), " ")
}
