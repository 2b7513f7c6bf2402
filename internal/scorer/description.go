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

// Description compares the capitalised words of both descriptions. Names and
// places survive rewording between publishers far better than prose does.
type Description struct {
	cfg config.WordScoring
}

func NewDescription(cfg config.WordScoring) *Description {
	return &Description{cfg: cfg}
}

func (s *Description) Name() string { return "description" }

func (s *Description) Score(ctx context.Context, subject model.Content, candidates []model.Content) (score.Candidates[model.Content], trace.Node, error) {
	words := textutil.CapitalisedWords(subject.Description)
	return scoreEach(ctx, s.Name(), "description scorer", subject, candidates, func(_, candidate model.Content) (score.Score, string) {
		other := textutil.CapitalisedWords(candidate.Description)
		if words.Len() == 0 || other.Len() == 0 {
			return score.Null, "no capitalised words"
		}
		ratio := words.OverlapRatio(other)
		c := s.cfg
		return discrete(ratio, c.MatchRatio, c.PartialRatio, c.MatchScore, c.PartialScore, c.MismatchScore),
			fmt.Sprintf("overlap %.2f of %d", ratio, min(words.Len(), other.Len()))
	})
}

// DescriptionTitle measures how many of the candidate's significant title
// words appear in the subject's description.
type DescriptionTitle struct {
	cfg config.WordScoring
}

func NewDescriptionTitle(cfg config.WordScoring) *DescriptionTitle {
	return &DescriptionTitle{cfg: cfg}
}

func (s *DescriptionTitle) Name() string { return "description_title" }

func (s *DescriptionTitle) Score(ctx context.Context, subject model.Content, candidates []model.Content) (score.Candidates[model.Content], trace.Node, error) {
	words := textutil.SignificantWords(subject.Description)
	return scoreEach(ctx, s.Name(), "description title scorer", subject, candidates, func(_, candidate model.Content) (score.Score, string) {
		title := textutil.SignificantWords(candidate.Title)
		if words.Len() == 0 || title.Len() == 0 {
			return score.Null, "no significant words"
		}
		found := title.Intersect(words)
		ratio := float64(found) / float64(title.Len())
		c := s.cfg
		return discrete(ratio, c.MatchRatio, c.PartialRatio, c.MatchScore, c.PartialScore, c.MismatchScore),
			fmt.Sprintf("%d of %d title words in description", found, title.Len())
	})
}
