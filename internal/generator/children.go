package generator

import (
	"context"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"equiv/internal/logging"
	"equiv/internal/lookup"
	"equiv/internal/model"
	"equiv/internal/resolve"
	"equiv/internal/score"
	"equiv/internal/services"
	"equiv/internal/trace"
)

// EntryReader reads lookup graph entries.
type EntryReader interface {
	Entry(ctx context.Context, id int64) (lookup.Entry, bool, error)
}

// ContainerChildren proposes the containers of the subject's children's
// equivalents. Each child that agrees adds 1/len(children), so a container
// whose every child matched scores 1.
type ContainerChildren struct {
	content resolve.ContentResolver
	graph   EntryReader
	targets []string
	logger  *slog.Logger
}

// NewContainerChildren builds the generator.
func NewContainerChildren(content resolve.ContentResolver, graph EntryReader, targets []string, logger *slog.Logger) *ContainerChildren {
	return &ContainerChildren{
		content: content,
		graph:   graph,
		targets: targets,
		logger:  logging.NewComponentLogger(logger, "generator-container-children"),
	}
}

func (g *ContainerChildren) Name() string { return "container_children" }

func (g *ContainerChildren) Generate(ctx context.Context, subject model.Content) (score.Candidates[model.Content], trace.Node, error) {
	builder := score.NewBuilder[model.Content](g.Name())
	tr := trace.New("container children generator")
	if !subject.Kind.IsContainer() || len(subject.Children) == 0 {
		tr.Line("subject has no children")
		return builder.Build(), tr.Node(), nil
	}
	targets := targetsExcluding(g.targets, subject.Publisher)
	weight := 1 / float64(len(subject.Children))

	found := make([][]model.Content, len(subject.Children))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(scheduleLookupLimit)
	for i, child := range subject.Children {
		group.Go(func() error {
			containers, err := g.childContainers(gctx, child, targets)
			if err != nil {
				return err
			}
			found[i] = containers
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return score.Empty[model.Content](g.Name()), tr.Node(), err
	}

	for i, containers := range found {
		for _, c := range containers {
			builder.Add(c, score.Real(weight))
		}
		tr.Linef("%s: %d equivalent containers", subject.Children[i].URI, len(containers))
	}
	return builder.Build(), tr.Node(), nil
}

// childContainers resolves the distinct containers of child's equivalents on
// target publishers. Lookups that abstain are skipped.
func (g *ContainerChildren) childContainers(ctx context.Context, child model.Ref, targets []string) ([]model.Content, error) {
	if child.ID == 0 {
		return nil, nil
	}
	entry, ok, err := g.graph.Entry(ctx, child.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var out []model.Content
	for _, eq := range entry.Equivalents {
		if !slices.Contains(targets, eq.Publisher) {
			continue
		}
		item, err := g.content.ContentByID(ctx, eq.ID)
		if err != nil {
			if services.Abstains(err) && ctx.Err() == nil {
				continue
			}
			return nil, err
		}
		parent, ok := item.Parent()
		if !ok {
			continue
		}
		container, err := g.content.Content(ctx, parent.URI)
		if err != nil {
			if services.Abstains(err) && ctx.Err() == nil {
				continue
			}
			return nil, err
		}
		if !slices.ContainsFunc(out, func(c model.Content) bool { return c.URI == container.URI }) {
			out = append(out, container)
		}
	}
	return out, nil
}
