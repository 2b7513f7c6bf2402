package generator

import (
	"context"
	"log/slog"

	"equiv/internal/logging"
	"equiv/internal/model"
	"equiv/internal/resolve"
	"equiv/internal/score"
	"equiv/internal/services"
	"equiv/internal/trace"
)

// TitleSearch proposes other publishers' content with a similar title. Hits
// carry a Null score; scorers decide how alike they are.
type TitleSearch struct {
	content resolve.ContentResolver
	targets []string
	logger  *slog.Logger
}

// NewTitleSearch builds the generator.
func NewTitleSearch(content resolve.ContentResolver, targets []string, logger *slog.Logger) *TitleSearch {
	return &TitleSearch{
		content: content,
		targets: targets,
		logger:  logging.NewComponentLogger(logger, "generator-title-search"),
	}
}

func (g *TitleSearch) Name() string { return "title_search" }

func (g *TitleSearch) Generate(ctx context.Context, subject model.Content) (score.Candidates[model.Content], trace.Node, error) {
	builder := score.NewBuilder[model.Content](g.Name())
	tr := trace.New("title search generator")
	targets := targetsExcluding(g.targets, subject.Publisher)
	if subject.Title == "" || len(targets) == 0 {
		tr.Line("nothing to search")
		return builder.Build(), tr.Node(), nil
	}

	hits, err := g.content.SearchTitle(ctx, subject.Title, targets, kindFamily(subject.Kind))
	if err != nil {
		if services.Abstains(err) && ctx.Err() == nil {
			tr.Linef("search failed (%s): abstained", services.Outcome(err))
			g.logger.Debug("title search abstained", logging.String(logging.FieldSubject, subject.URI), logging.Error(err))
			return builder.Build(), tr.Node(), nil
		}
		return score.Empty[model.Content](g.Name()), tr.Node(), err
	}
	for _, hit := range hits {
		if hit.URI == subject.URI {
			continue
		}
		builder.Update(hit, score.Null)
	}
	tr.Linef("%q: %d hits", subject.Title, builder.Build().Len())
	return builder.Build(), tr.Node(), nil
}
