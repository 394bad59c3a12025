// Package tokenizer implements the accent-stripping FR/EN tokenizer used
// by the BM25 index and insight recall ranking. It is deterministic,
// stable across calls, and independent of the host's locale.
package tokenizer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+(?:-[a-z0-9]+)*`)

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldAccents strips combining diacritics (NFD decomposition, drop Mn,
// recompose) without tokenizing — for callers doing exact or substring
// matching (e.g. retention's protected-keyword scan) that need ASCII
// folding but must keep punctuation and spacing intact.
func FoldAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// Tokenize lowercases, strips accents, extracts word/number runs (splitting
// hyphenated compounds), always drops tokens shorter than two characters,
// and, when removeStopwords is set, drops a combined FR+EN stopword set.
func Tokenize(text string, removeStopwords bool) []string {
	lowered := strings.ToLower(text)
	stripped, _, err := transform.String(accentStripper, lowered)
	if err != nil {
		stripped = lowered
	}

	raw := tokenPattern.FindAllString(stripped, -1)

	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if strings.Contains(tok, "-") {
			tokens = append(tokens, strings.Split(tok, "-")...)
		} else {
			tokens = append(tokens, tok)
		}
	}

	out := tokens[:0]
	for _, t := range tokens {
		if len(t) < 2 {
			continue
		}
		if removeStopwords && stopwords[t] {
			continue
		}
		out = append(out, t)
	}
	return out
}
