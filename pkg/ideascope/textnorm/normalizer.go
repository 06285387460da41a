package textnorm

import (
	"sort"
	"strings"
	"unicode"

	"github.com/cognicore/ideascope/pkg/ideascope/stoplist"
)

// TokenSet is an unordered set of normalized tokens.
type TokenSet map[string]struct{}

// NewTokenSet builds a set from the given tokens.
func NewTokenSet(tokens ...string) TokenSet {
	s := make(TokenSet, len(tokens))
	for _, t := range tokens {
		s[t] = struct{}{}
	}
	return s
}

// Len returns the number of distinct tokens.
func (s TokenSet) Len() int { return len(s) }

// Has reports whether tok is in the set.
func (s TokenSet) Has(tok string) bool {
	_, ok := s[tok]
	return ok
}

// Sorted returns the tokens in lexical order.
func (s TokenSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Result is the output of Normalize. Tokens is nil unless a set was requested.
type Result struct {
	Text   string
	Tokens TokenSet
}

// Normalizer lowercases text, strips punctuation and removes stopwords.
type Normalizer struct {
	stops *stoplist.Manager
}

// NewNormalizer creates a normalizer with the given stopword list
func NewNormalizer(stopwords []string) *Normalizer {
	return &Normalizer{stops: stoplist.NewManager(stopwords)}
}

// NewNormalizerFromManager shares an existing stoplist manager.
func NewNormalizerFromManager(m *stoplist.Manager) *Normalizer {
	return &Normalizer{stops: m}
}

// Default returns a normalizer over the fixed English stopword list.
func Default() *Normalizer {
	return NewNormalizer(stoplist.English())
}

// Normalize lowercases text, removes punctuation, splits on whitespace and drops
// stopwords. When asSet is true the surviving tokens are also returned as a set.
func (n *Normalizer) Normalize(text string, asSet bool) Result {
	words := n.words(text)
	res := Result{Text: strings.Join(words, " ")}
	if asSet {
		res.Tokens = NewTokenSet(words...)
	}
	return res
}

// Text returns the normalized text with tokens rejoined by single spaces.
func (n *Normalizer) Text(text string) string {
	return n.Normalize(text, false).Text
}

// Tokens returns the normalized token set.
func (n *Normalizer) Tokens(text string) TokenSet {
	return n.Normalize(text, true).Tokens
}

func (n *Normalizer) words(text string) []string {
	cleaned := stripPunctuation(strings.ToLower(text))
	fields := strings.Fields(cleaned)
	out := fields[:0]
	for _, w := range fields {
		if n.stops.IsStop(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// stripPunctuation removes punctuation and symbol runes. Apostrophes go too, so
// "don't" becomes "dont" before the stopword check.
func stripPunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
