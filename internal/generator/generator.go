package generator

import (
	"context"
	"slices"

	"equiv/internal/model"
	"equiv/internal/score"
	"equiv/internal/trace"
)

// Generator proposes candidates for a subject. Implementations never modify
// the subject and only return once every sub-lookup has finished.
type Generator[T score.Keyed] interface {
	Name() string
	Generate(ctx context.Context, subject T) (score.Candidates[T], trace.Node, error)
}

// kindFamily lists the kinds a subject may be matched against: containers
// against containers, everything else against playable content.
func kindFamily(kind model.Kind) []model.Kind {
	if kind.IsContainer() {
		return []model.Kind{model.KindBrand, model.KindSeries}
	}
	return []model.Kind{model.KindItem, model.KindEpisode, model.KindFilm, model.KindClip}
}

// targetsExcluding drops the subject's own publisher from the target list.
func targetsExcluding(targets []string, publisher string) []string {
	return slices.DeleteFunc(slices.Clone(targets), func(p string) bool { return p == publisher })
}
