package textutil

import (
	"math"
	"testing"
)

func TestStripAccents(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Amélie", "Amelie"},
		{"Pokémon", "Pokemon"},
		{"crème brûlée", "creme brulee"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := StripAccents(tt.in); got != tt.want {
			t.Errorf("StripAccents(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFold(t *testing.T) {
	if got := Fold("  The SIMPSONS "); got != "the simpsons" {
		t.Fatalf("Fold = %q", got)
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"same", "same", 0},
		{"café", "cafe", 1},
	}
	for _, tt := range tests {
		if got := Distance(tt.a, tt.b); got != tt.want {
			t.Errorf("Distance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("", ""); got != 1 {
		t.Fatalf("Similarity of empty strings = %v", got)
	}
	got := Similarity("kitten", "sitting")
	want := 1 - 3.0/7.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("Similarity = %v, want %v", got, want)
	}
}

func TestCapitalisedWordsSkipsSentenceStartAndStopWords(t *testing.T) {
	set := CapitalisedWords("Homer takes Bart to Springfield. The family visits Moe's Tavern and The Kwik-E-Mart.")
	for _, want := range []string{"bart", "springfield", "moe's", "tavern", "kwik"} {
		if !set.Has(want) {
			t.Errorf("expected %q in %v", want, set)
		}
	}
	for _, unwanted := range []string{"homer", "the", "family"} {
		if set.Has(unwanted) {
			t.Errorf("did not expect %q in %v", unwanted, set)
		}
	}
}

func TestOverlapRatio(t *testing.T) {
	a := WordSet{"bart": {}, "lisa": {}, "homer": {}}
	b := WordSet{"bart": {}, "lisa": {}}
	if got := a.OverlapRatio(b); got != 1 {
		t.Fatalf("OverlapRatio = %v, want 1", got)
	}
	if got := a.OverlapRatio(WordSet{}); got != 0 {
		t.Fatalf("OverlapRatio with empty = %v", got)
	}
}

func TestSignificantWords(t *testing.T) {
	set := SignificantWords("The Lord of the Rings: Return of the King")
	if set.Len() != 4 {
		t.Fatalf("unexpected set %v", set)
	}
	for _, w := range []string{"lord", "rings", "return", "king"} {
		if !set.Has(w) {
			t.Errorf("missing %q", w)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("BBC One / Items"); got != "bbc_one___items" {
		t.Fatalf("SanitizeToken = %q", got)
	}
	if got := SanitizeToken("  "); got != "unknown" {
		t.Fatalf("SanitizeToken blank = %q", got)
	}
}

func TestCollapseSpaces(t *testing.T) {
	if got := CollapseSpaces("  news \t at\nten "); got != "news at ten" {
		t.Fatalf("CollapseSpaces = %q", got)
	}
}
