package filter

import (
	"fmt"

	"equiv/internal/config"
	"equiv/internal/model"
	"equiv/internal/score"
	"equiv/internal/trace"
)

// Filter decides whether a candidate may be equivalent to the subject.
type Filter[T score.Keyed] interface {
	Name() string
	Apply(candidate, subject T) (bool, string)
}

// Func adapts a function to Filter.
type Func[T score.Keyed] struct {
	name string
	fn   func(candidate, subject T) (bool, string)
}

// NewFunc names fn as a filter.
func NewFunc[T score.Keyed](name string, fn func(candidate, subject T) (bool, string)) Func[T] {
	return Func[T]{name: name, fn: fn}
}

func (f Func[T]) Name() string { return f.name }

func (f Func[T]) Apply(candidate, subject T) (bool, string) { return f.fn(candidate, subject) }

type all[T score.Keyed] []Filter[T]

// All keeps a candidate only when every filter keeps it. The reason names the
// first filter that rejected.
func All[T score.Keyed](filters ...Filter[T]) Filter[T] {
	return all[T](filters)
}

func (a all[T]) Name() string { return "all" }

func (a all[T]) Apply(candidate, subject T) (bool, string) {
	for _, f := range a {
		if keep, reason := f.Apply(candidate, subject); !keep {
			return false, f.Name() + ": " + reason
		}
	}
	return true, ""
}

// Run applies f to each candidate in order. It returns the survivors and,
// keyed by URI, the reason each removed candidate was rejected.
func Run[T score.Keyed](f Filter[T], subject T, candidates []T) ([]T, map[string]string, trace.Node) {
	tr := trace.New("filters")
	kept := make([]T, 0, len(candidates))
	removed := make(map[string]string)
	for _, c := range candidates {
		if keep, reason := f.Apply(c, subject); !keep {
			removed[c.CanonicalURI()] = reason
			tr.Linef("%s removed by %s", c.CanonicalURI(), reason)
			continue
		}
		kept = append(kept, c)
	}
	tr.Linef("%d of %d candidates kept", len(kept), len(candidates))
	return kept, removed, tr.Node()
}

// Published rejects candidates that are no longer actively published.
func Published() Filter[model.Content] {
	return NewFunc("published", func(candidate, _ model.Content) (bool, string) {
		if !candidate.Active {
			return false, "not actively published"
		}
		return true, ""
	})
}

// NotSelf rejects the subject itself.
func NotSelf() Filter[model.Content] {
	return NewFunc("not_self", func(candidate, subject model.Content) (bool, string) {
		if candidate.URI == subject.URI || (candidate.ID != 0 && candidate.ID == subject.ID) {
			return false, "candidate is the subject"
		}
		return true, ""
	})
}

// DistinctPublisher rejects candidates from the subject's own publisher.
func DistinctPublisher() Filter[model.Content] {
	return NewFunc("distinct_publisher", func(candidate, subject model.Content) (bool, string) {
		if candidate.Publisher == subject.Publisher {
			return false, "same publisher as subject"
		}
		return true, ""
	})
}

// MediaType rejects audio against video. An unset media type matches both.
func MediaType() Filter[model.Content] {
	return NewFunc("media_type", func(candidate, subject model.Content) (bool, string) {
		if candidate.MediaType != "" && subject.MediaType != "" && candidate.MediaType != subject.MediaType {
			return false, fmt.Sprintf("%s candidate for %s subject", candidate.MediaType, subject.MediaType)
		}
		return true, ""
	})
}

// FilmYear rejects films whose release years are further apart than the
// tolerance. A missing year never disqualifies.
func FilmYear(cfg config.FilmFilter) Filter[model.Content] {
	return NewFunc("film_year", func(candidate, subject model.Content) (bool, string) {
		if subject.Kind != model.KindFilm && candidate.Kind != model.KindFilm {
			return true, ""
		}
		if subject.Year == 0 || candidate.Year == 0 {
			return true, ""
		}
		diff := candidate.Year - subject.Year
		if diff < 0 {
			diff = -diff
		}
		if diff > cfg.YearTolerance {
			return false, fmt.Sprintf("year %d is %d from %d", candidate.Year, diff, subject.Year)
		}
		return true, ""
	})
}
