// Package vocab builds per-document token vocabularies from an embedding
// provider and turns sentences into count-weighted sentence vectors.
package vocab

import (
	"regexp"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// tokenPattern matches runs of letters and digits, keeping inner hyphens and
// apostrophes ("Covid-19", "geht's") inside a single token.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’\-][\p{L}\p{N}]+)*`)

// Tokenize splits text into word tokens in order of appearance.
// Text is NFC-normalized first so composed and decomposed umlauts compare equal.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(norm.NFC.String(text), -1)
}

// Distinct returns the sorted set of tokens in text.
func Distinct(text string) []string {
	seen := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		seen[tok] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for tok := range seen {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}
