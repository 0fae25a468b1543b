package normalize

import (
	"math"
	"strings"
)

// Words shorter than this carry too little signal to count toward overlap.
const minSignalWordLen = 4

// Fraction of the query's signal words that must appear in the candidate.
const overlapThreshold = 0.6

// IsSimilar reports whether two normalized, lower-cased patterns plausibly
// describe the same counterparty. The check is intentionally asymmetric:
// query plays the role of the stored/learned pattern and candidate the new
// transaction, and callers must keep that orientation consistent.
//
// Decision policy, first match wins:
//  1. exact equality
//  2. containment in either direction
//  3. word overlap: if query has at least two words longer than three
//     characters, similar when >= 60% of them appear in candidate
func IsSimilar(query, candidate string) bool {
	if query == candidate {
		return true
	}
	if query != "" && strings.Contains(candidate, query) {
		return true
	}
	if candidate != "" && strings.Contains(query, candidate) {
		return true
	}

	words := signalWords(query)
	if len(words) < 2 {
		return false
	}

	matched := 0
	for _, w := range words {
		if strings.Contains(candidate, w) {
			matched++
		}
	}

	needed := int(math.Ceil(float64(len(words)) * overlapThreshold))
	return matched >= needed
}

// signalWords tokenizes a pattern into the words long enough to count
// toward the overlap check.
func signalWords(pattern string) []string {
	var words []string
	for _, w := range strings.Fields(pattern) {
		if len(w) >= minSignalWordLen {
			words = append(words, w)
		}
	}
	return words
}
