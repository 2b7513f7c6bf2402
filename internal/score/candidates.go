package score

// Keyed is satisfied by anything that can be proposed as an equivalence
// candidate. Candidates are identified by canonical URI.
type Keyed interface {
	CanonicalURI() string
}

type entry[T Keyed] struct {
	candidate T
	score     Score
}

// Candidates is an immutable, ordered mapping of candidate to score produced
// by one named generator or scorer.
type Candidates[T Keyed] struct {
	source  string
	order   []string
	entries map[string]entry[T]
}

// Empty returns a candidate set with no entries.
func Empty[T Keyed](source string) Candidates[T] {
	return Candidates[T]{source: source}
}

// Source names the generator or scorer that produced the set.
func (c Candidates[T]) Source() string { return c.source }

// Len returns the number of candidates.
func (c Candidates[T]) Len() int { return len(c.order) }

// Candidates returns the candidates in insertion order.
func (c Candidates[T]) Candidates() []T {
	out := make([]T, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.entries[key].candidate)
	}
	return out
}

// Score returns the score for the candidate with the given URI.
func (c Candidates[T]) Score(uri string) (Score, bool) {
	e, ok := c.entries[uri]
	if !ok {
		return Null, false
	}
	return e.score, true
}

// Each visits candidates in insertion order until fn returns false.
func (c Candidates[T]) Each(fn func(candidate T, s Score) bool) {
	for _, key := range c.order {
		e := c.entries[key]
		if !fn(e.candidate, e.score) {
			return
		}
	}
}

// Best returns the highest scoring candidate. NaN scores are never ranked and
// ties keep the earlier candidate.
func (c Candidates[T]) Best() (T, Score, bool) {
	var (
		best      T
		bestScore = Null
		found     bool
	)
	for _, key := range c.order {
		e := c.entries[key]
		if e.score.IsNaN() {
			continue
		}
		if !found || e.score.Better(bestScore) {
			best, bestScore, found = e.candidate, e.score, true
		}
	}
	return best, bestScore, found
}

// Builder accumulates scores for a Candidates set. A Builder must not be
// shared between goroutines.
type Builder[T Keyed] struct {
	source  string
	order   []string
	entries map[string]entry[T]
}

// NewBuilder starts a candidate set for the named source.
func NewBuilder[T Keyed](source string) *Builder[T] {
	return &Builder[T]{source: source, entries: make(map[string]entry[T])}
}

// Add accumulates s onto any existing score for the candidate.
func (b *Builder[T]) Add(candidate T, s Score) *Builder[T] {
	key := candidate.CanonicalURI()
	if existing, ok := b.entries[key]; ok {
		existing.score = existing.score.Add(s)
		b.entries[key] = existing
		return b
	}
	b.order = append(b.order, key)
	b.entries[key] = entry[T]{candidate: candidate, score: s}
	return b
}

// Update replaces any existing score for the candidate.
func (b *Builder[T]) Update(candidate T, s Score) *Builder[T] {
	key := candidate.CanonicalURI()
	if _, ok := b.entries[key]; !ok {
		b.order = append(b.order, key)
	}
	b.entries[key] = entry[T]{candidate: candidate, score: s}
	return b
}

// Build freezes the accumulated scores. The builder may keep being used; the
// returned set does not observe later changes.
func (b *Builder[T]) Build() Candidates[T] {
	order := make([]string, len(b.order))
	copy(order, b.order)
	entries := make(map[string]entry[T], len(b.entries))
	for k, v := range b.entries {
		entries[k] = v
	}
	return Candidates[T]{source: b.source, order: order, entries: entries}
}
