package scorer

import (
	"context"
	"fmt"

	"equiv/internal/config"
	"equiv/internal/model"
	"equiv/internal/score"
	"equiv/internal/trace"
)

// Sequence compares series and episode numbers.
type Sequence struct {
	cfg config.SequenceScoring
}

func NewSequence(cfg config.SequenceScoring) *Sequence {
	return &Sequence{cfg: cfg}
}

func (s *Sequence) Name() string { return "sequence" }

func (s *Sequence) Score(ctx context.Context, subject model.Content, candidates []model.Content) (score.Candidates[model.Content], trace.Node, error) {
	return scoreEach(ctx, s.Name(), "sequence scorer", subject, candidates, func(subject, candidate model.Content) (score.Score, string) {
		if subject.EpisodeNumber == 0 || candidate.EpisodeNumber == 0 {
			return score.Null, "episode number missing"
		}
		why := fmt.Sprintf("s%de%d vs s%de%d", subject.SeriesNumber, subject.EpisodeNumber, candidate.SeriesNumber, candidate.EpisodeNumber)
		if subject.EpisodeNumber != candidate.EpisodeNumber {
			return score.Real(s.cfg.MismatchScore), why
		}
		// A series number on one side only is not a contradiction.
		if subject.SeriesNumber != 0 && candidate.SeriesNumber != 0 && subject.SeriesNumber != candidate.SeriesNumber {
			return score.Real(s.cfg.MismatchScore), why
		}
		return score.Real(s.cfg.MatchScore), why
	})
}
