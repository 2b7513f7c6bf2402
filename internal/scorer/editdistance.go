package scorer

import (
	"context"
	"fmt"

	"equiv/internal/config"
	"equiv/internal/model"
	"equiv/internal/score"
	"equiv/internal/textutil"
	"equiv/internal/trace"
)

// EditDistance scores titles by normalized Levenshtein similarity. Titles
// below the partial similarity abstain.
type EditDistance struct {
	cfg config.EditDistanceScoring
}

func NewEditDistance(cfg config.EditDistanceScoring) *EditDistance {
	return &EditDistance{cfg: cfg}
}

func (s *EditDistance) Name() string { return "edit_distance" }

func (s *EditDistance) Score(ctx context.Context, subject model.Content, candidates []model.Content) (score.Candidates[model.Content], trace.Node, error) {
	a := expandTitle(baseTitle(subject.Title))
	return scoreEach(ctx, s.Name(), "edit distance scorer", subject, candidates, func(_, candidate model.Content) (score.Score, string) {
		b := expandTitle(baseTitle(candidate.Title))
		if a == "" || b == "" {
			return score.Null, "missing title"
		}
		sim := textutil.Similarity(a, b)
		why := fmt.Sprintf("similarity %.2f", sim)
		switch {
		case sim >= s.cfg.PerfectSimilarity:
			return score.Real(s.cfg.PerfectScore), why
		case sim >= s.cfg.PartialSimilarity:
			return score.Real(s.cfg.PartialScore), why
		default:
			return score.Null, why
		}
	})
}
