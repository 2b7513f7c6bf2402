package filter

import "equiv/internal/model"

type level int

const (
	levelPlayable level = iota
	levelBrand
	levelTopSeries
	levelSeries
)

func levelOf(c model.Content) level {
	switch {
	case c.Kind == model.KindBrand:
		return levelBrand
	case c.IsTopLevelSeries():
		return levelTopSeries
	case c.Kind == model.KindSeries:
		return levelSeries
	default:
		return levelPlayable
	}
}

func (l level) String() string {
	switch l {
	case levelBrand:
		return "brand"
	case levelTopSeries:
		return "top-level series"
	case levelSeries:
		return "series"
	default:
		return "playable"
	}
}

// compatible lists which candidate levels each subject level accepts. Brands
// and top-level series both stand at the top of a hierarchy.
var compatible = map[level][]level{
	levelPlayable:  {levelPlayable},
	levelBrand:     {levelBrand, levelTopSeries},
	levelTopSeries: {levelTopSeries, levelBrand},
	levelSeries:    {levelSeries},
}

// Hierarchy keeps containers at the same level of their hierarchy as the
// subject.
func Hierarchy() Filter[model.Content] {
	return NewFunc("hierarchy", func(candidate, subject model.Content) (bool, string) {
		want, got := levelOf(subject), levelOf(candidate)
		for _, ok := range compatible[want] {
			if ok == got {
				return true, ""
			}
		}
		return false, got.String() + " candidate for " + want.String() + " subject"
	})
}

// DummyContainer rejects empty placeholder containers unless the subject is
// empty too.
func DummyContainer() Filter[model.Content] {
	return NewFunc("dummy_container", func(candidate, subject model.Content) (bool, string) {
		if !candidate.Kind.IsContainer() || len(candidate.Children) > 0 {
			return true, ""
		}
		if subject.Kind.IsContainer() && len(subject.Children) == 0 {
			return true, ""
		}
		return false, "candidate container has no children"
	})
}
