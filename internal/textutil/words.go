package textutil

import (
	"strings"
	"unicode"
)

// WordSet is an unordered set of words.
type WordSet map[string]struct{}

// Len returns the number of words in the set.
func (s WordSet) Len() int { return len(s) }

// Has reports whether word is in the set.
func (s WordSet) Has(word string) bool {
	_, ok := s[word]
	return ok
}

// Intersect counts the words present in both sets.
func (s WordSet) Intersect(other WordSet) int {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for w := range small {
		if large.Has(w) {
			n++
		}
	}
	return n
}

// OverlapRatio is the shared word count divided by the size of the smaller
// set. Empty sets yield 0.
func (s WordSet) OverlapRatio(other WordSet) float64 {
	smaller := min(len(s), len(other))
	if smaller == 0 {
		return 0
	}
	return float64(s.Intersect(other)) / float64(smaller)
}

// Words splits text on anything that is not a letter, digit or apostrophe.
func Words(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// CapitalisedWords collects the words of text that start with an upper-case
// letter, folded for comparison. Sentence-initial words and stop words are
// skipped since their capitals carry no signal.
func CapitalisedWords(text string) WordSet {
	set := make(WordSet)
	sentenceStart := true
	for _, sentence := range splitSentences(text) {
		sentenceStart = true
		for _, word := range Words(sentence) {
			first := []rune(word)[0]
			if sentenceStart {
				sentenceStart = false
				continue
			}
			if !unicode.IsUpper(first) {
				continue
			}
			folded := Fold(StripAccents(strings.Trim(word, "'")))
			if folded == "" || IsStopWord(folded) {
				continue
			}
			set[folded] = struct{}{}
		}
	}
	return set
}

// SignificantWords folds text into the set of words longer than two
// characters that are not stop words.
func SignificantWords(text string) WordSet {
	set := make(WordSet)
	for _, word := range Words(Fold(StripAccents(text))) {
		word = strings.Trim(word, "'")
		if len([]rune(word)) < 3 || IsStopWord(word) {
			continue
		}
		set[word] = struct{}{}
	}
	return set
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
}

var stopWords = WordSet{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "he": {}, "her": {}, "his": {}, "in": {},
	"into": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "she": {},
	"that": {}, "the": {}, "their": {}, "they": {}, "this": {}, "to": {}, "was": {},
	"when": {}, "who": {}, "with": {},
}

// IsStopWord reports whether a folded word is too common to carry meaning.
func IsStopWord(word string) bool {
	return stopWords.Has(word)
}
