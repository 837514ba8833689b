// Package tokenizer splits raw document bytes into the term-frequency maps
// the index store and search path both operate on.
package tokenizer

import "regexp"

// tokenRegex matches maximal runs of ASCII letters and digits. Anything else
// is a separator. This must match bit-for-bit between indexing and search,
// so it intentionally has no Unicode or stemming awareness.
var tokenRegex = regexp.MustCompile(`[A-Za-z0-9]+`)

// minTokenLength is the longest token length dropped: tokens of length <= 2
// are discarded, so the shortest kept token has three characters.
const minTokenLength = 2

// Tokenize extracts case-sensitive alphanumeric terms longer than two
// characters from b and returns a map from term to occurrence count.
func Tokenize(b []byte) map[string]int {
	freq := make(map[string]int)
	for _, tok := range tokenRegex.FindAll(b, -1) {
		if len(tok) <= minTokenLength {
			continue
		}
		freq[string(tok)]++
	}
	return freq
}
