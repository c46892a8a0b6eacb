package bm25

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text and splits it on runs of non-alphanumeric
// characters, producing word-boundary tokens. Deterministic for a given
// input; empty input yields no tokens.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// termFrequencies counts token occurrences in one document.
func termFrequencies(tokens []string) map[string]int {
	freqs := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		freqs[tok]++
	}
	return freqs
}
