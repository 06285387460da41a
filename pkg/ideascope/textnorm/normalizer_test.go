package textnorm

import (
	"strings"
	"testing"
)

func TestNormalizeBasic(t *testing.T) {
	n := NewNormalizer([]string{"the", "a", "and", "of"})

	got := n.Text("The quick brown fox jumps over the lazy dog")
	want := "quick brown fox jumps over lazy dog"
	if got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestNormalizePunctuation(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"commas and periods", "Prompting, retrieval. Decoding!", "prompting retrieval decoding"},
		{"hyphens joined", "chain-of-thought", "chainofthought"},
		{"symbols", "accuracy > 90% (+5)", "accuracy 90 5"},
		{"apostrophes", "model's output", "models output"},
		{"whitespace runs", "  a\t\tb\n\nc  ", "a b c"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Text(tt.input); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeCase(t *testing.T) {
	n := NewNormalizer([]string{"The"})

	for _, tok := range strings.Fields(n.Text("The LLM Uses THE Retrieval")) {
		if tok != strings.ToLower(tok) {
			t.Errorf("token %q should be lowercased", tok)
		}
		if tok == "the" {
			t.Error("stopword matching must be case-insensitive")
		}
	}
}

func TestNormalizeSetFlag(t *testing.T) {
	n := Default()

	res := n.Normalize("Retrieval improves retrieval of the facts", false)
	if res.Tokens != nil {
		t.Error("Tokens should be nil when no set is requested")
	}

	res = n.Normalize("Retrieval improves retrieval of the facts", true)
	if res.Tokens.Len() != 3 {
		t.Fatalf("expected 3 distinct tokens, got %v", res.Tokens.Sorted())
	}
	for _, w := range []string{"retrieval", "improves", "facts"} {
		if !res.Tokens.Has(w) {
			t.Errorf("missing token %q", w)
		}
	}
	if res.Text != "retrieval improves retrieval facts" {
		t.Errorf("unexpected text %q", res.Text)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	n := Default()

	if got := n.Tokens(""); got.Len() != 0 {
		t.Errorf("empty input should yield empty set, got %v", got.Sorted())
	}
	if got := n.Tokens("the of and"); got.Len() != 0 {
		t.Errorf("stopword-only input should yield empty set, got %v", got.Sorted())
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	n := Default()
	text := "We propose a novel prompting method for multilingual reasoning."
	first := n.Tokens(text).Sorted()
	for i := 0; i < 5; i++ {
		again := n.Tokens(text).Sorted()
		if strings.Join(again, ",") != strings.Join(first, ",") {
			t.Fatalf("normalization not deterministic: %v vs %v", first, again)
		}
	}
}
