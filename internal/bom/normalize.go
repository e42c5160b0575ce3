// Package bom implements the parts-list reconciliation engine: text
// normalization, catalog matching, per-source presence and snapshot diffs.
//
// Everything here is a pure function of its inputs. Callers own caching.
package bom

import (
	"regexp"
	"strings"
)

// MinTokenLength is the shortest token kept by Tokenize. Shorter tokens are
// mostly unit suffixes and separators and only add noise to similarity scores.
const MinTokenLength = 3

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize canonicalizes free text for comparison: lowercase, every run of
// non-alphanumeric characters becomes one space, surrounding space trimmed.
func Normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = nonAlnum.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// NormalizePtr is Normalize for nullable fields; nil normalizes to "".
func NormalizePtr(text *string) string {
	if text == nil {
		return ""
	}
	return Normalize(*text)
}

// TokenSet is a set of normalized tokens.
type TokenSet map[string]struct{}

// Tokenize splits the normalized text into tokens of at least MinTokenLength.
func Tokenize(text string) TokenSet {
	set := make(TokenSet)
	for _, tok := range strings.Split(Normalize(text), " ") {
		if len(tok) >= MinTokenLength {
			set[tok] = struct{}{}
		}
	}
	return set
}

// TokenizeAll is the union of Tokenize over every non-nil input.
func TokenizeAll(texts ...*string) TokenSet {
	set := make(TokenSet)
	for _, t := range texts {
		if t == nil {
			continue
		}
		for tok := range Tokenize(*t) {
			set[tok] = struct{}{}
		}
	}
	return set
}

// TokenSimilarity is the Jaccard similarity of two token sets, 0 when either is empty.
func TokenSimilarity(a, b TokenSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
