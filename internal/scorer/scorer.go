package scorer

import (
	"context"

	"equiv/internal/model"
	"equiv/internal/score"
	"equiv/internal/trace"
)

// Scorer rates each candidate against the subject.
type Scorer[T score.Keyed] interface {
	Name() string
	Score(ctx context.Context, subject T, candidates []T) (score.Candidates[T], trace.Node, error)
}

// pairFunc scores one candidate and returns a short explanation.
type pairFunc func(subject, candidate model.Content) (score.Score, string)

// scoreEach applies fn to every candidate in order. It checks ctx between
// candidates so a cancelled run stops early.
func scoreEach(ctx context.Context, name, label string, subject model.Content, candidates []model.Content, fn pairFunc) (score.Candidates[model.Content], trace.Node, error) {
	builder := score.NewBuilder[model.Content](name)
	tr := trace.New(label)
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return score.Empty[model.Content](name), tr.Node(), err
		}
		s, why := fn(subject, c)
		builder.Update(c, s)
		tr.Linef("%s: %s (%s)", c.URI, s, why)
	}
	return builder.Build(), tr.Node(), nil
}

// discrete maps a ratio onto the configured match, partial or mismatch score.
func discrete(ratio, matchRatio, partialRatio, match, partial, mismatch float64) score.Score {
	switch {
	case ratio >= matchRatio:
		return score.Real(match)
	case ratio >= partialRatio:
		return score.Real(partial)
	default:
		return score.Real(mismatch)
	}
}
