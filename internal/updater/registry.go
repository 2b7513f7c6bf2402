package updater

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"equiv/internal/cache"
	"equiv/internal/combiner"
	"equiv/internal/config"
	"equiv/internal/filter"
	"equiv/internal/generator"
	"equiv/internal/model"
	"equiv/internal/resolve"
	"equiv/internal/scorer"
	"equiv/internal/services"
	"equiv/internal/telemetry"
)

// Deps carries the collaborators shared by every pipeline.
type Deps struct {
	Catalog   resolve.Catalog
	Graph     generator.EntryReader
	Persister Persister
	Reporter  telemetry.Reporter
	Listings  config.Listings
	// Titles caches container titles for the title scorer. Nil builds a
	// per-updater cache with the default TTL.
	Titles *cache.TTL[string]
	// Clock overrides the broadcast generator's notion of now.
	Clock  func() time.Time
	Logger *slog.Logger
}

type generatorFactory func(p config.Pipeline, d Deps) generator.Generator[model.Content]

type scorerFactory func(p config.Pipeline, d Deps) scorer.Scorer[model.Content]

type filterFactory func(p config.Pipeline) filter.Filter[model.Content]

var generatorFactories = map[string]generatorFactory{
	"broadcast": func(p config.Pipeline, d Deps) generator.Generator[model.Content] {
		g := generator.NewBroadcast(d.Catalog, d.Catalog, p.Broadcast, p.TargetPublishers, d.Logger)
		if d.Clock != nil {
			g.WithClock(d.Clock)
		}
		return g
	},
	"title_search": func(p config.Pipeline, d Deps) generator.Generator[model.Content] {
		return generator.NewTitleSearch(d.Catalog, p.TargetPublishers, d.Logger)
	},
	"container_children": func(p config.Pipeline, d Deps) generator.Generator[model.Content] {
		return generator.NewContainerChildren(d.Catalog, d.Graph, p.TargetPublishers, d.Logger)
	},
}

var scorerFactories = map[string]scorerFactory{
	"title": func(p config.Pipeline, d Deps) scorer.Scorer[model.Content] {
		return scorer.NewTitle(p.Title, d.Listings, d.Catalog, d.Titles, d.Logger)
	},
	"description": func(p config.Pipeline, _ Deps) scorer.Scorer[model.Content] {
		return scorer.NewDescription(p.Description)
	},
	"description_title": func(p config.Pipeline, _ Deps) scorer.Scorer[model.Content] {
		return scorer.NewDescriptionTitle(p.DescriptionTitle)
	},
	"edit_distance": func(p config.Pipeline, _ Deps) scorer.Scorer[model.Content] {
		return scorer.NewEditDistance(p.EditDistance)
	},
	"broadcast_alignment": func(p config.Pipeline, d Deps) scorer.Scorer[model.Content] {
		return scorer.NewBroadcast(d.Catalog, p.Broadcast, d.Logger)
	},
	"sequence": func(p config.Pipeline, _ Deps) scorer.Scorer[model.Content] {
		return scorer.NewSequence(p.Sequence)
	},
}

var filterFactories = map[string]filterFactory{
	"published":          func(config.Pipeline) filter.Filter[model.Content] { return filter.Published() },
	"hierarchy":          func(config.Pipeline) filter.Filter[model.Content] { return filter.Hierarchy() },
	"dummy_container":    func(config.Pipeline) filter.Filter[model.Content] { return filter.DummyContainer() },
	"film_year":          func(p config.Pipeline) filter.Filter[model.Content] { return filter.FilmYear(p.Film) },
	"media_type":         func(config.Pipeline) filter.Filter[model.Content] { return filter.MediaType() },
	"distinct_publisher": func(config.Pipeline) filter.Filter[model.Content] { return filter.DistinctPublisher() },
	"not_self":           func(config.Pipeline) filter.Filter[model.Content] { return filter.NotSelf() },
}

// GeneratorNames lists the generator variants a pipeline may name.
func GeneratorNames() []string { return sortedKeys(generatorFactories) }

// ScorerNames lists the scorer variants a pipeline may name.
func ScorerNames() []string { return sortedKeys(scorerFactories) }

// FilterNames lists the filter variants a pipeline may name.
func FilterNames() []string { return sortedKeys(filterFactories) }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks every pipeline's strategy names and kinds without building
// anything.
func Validate(cfg *config.Config) error {
	for _, p := range cfg.Pipelines {
		if err := validatePipeline(p); err != nil {
			return err
		}
	}
	return nil
}

func validatePipeline(p config.Pipeline) error {
	check := func(field string, names []string, known []string) error {
		for _, name := range names {
			if !slices.Contains(known, name) {
				return services.Wrap(services.ErrConfiguration, "", "pipeline "+p.Name,
					fmt.Sprintf("%s: unknown variant %q (known: %v)", field, name, known), nil)
			}
		}
		return nil
	}
	if err := check("generators", p.Generators, GeneratorNames()); err != nil {
		return err
	}
	if err := check("scorers", p.Scorers, ScorerNames()); err != nil {
		return err
	}
	if err := check("filters", p.Filters, FilterNames()); err != nil {
		return err
	}
	if _, err := Kinds(p); err != nil {
		return err
	}
	return nil
}

// Kinds parses the pipeline's subject kinds.
func Kinds(p config.Pipeline) ([]model.Kind, error) {
	kinds := make([]model.Kind, 0, len(p.Kinds))
	for _, raw := range p.Kinds {
		kind, ok := model.ParseKind(raw)
		if !ok {
			return nil, services.Wrap(services.ErrConfiguration, "", "pipeline "+p.Name,
				fmt.Sprintf("kinds: unknown content kind %q", raw), nil)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// Build assembles the content updater described by p.
func Build(p config.Pipeline, d Deps) (*Updater[model.Content], error) {
	if err := validatePipeline(p); err != nil {
		return nil, err
	}
	if d.Catalog == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "pipeline "+p.Name, "catalog is required", nil)
	}
	if d.Graph == nil && slices.Contains(p.Generators, "container_children") {
		return nil, services.Wrap(services.ErrConfiguration, "", "pipeline "+p.Name, "container_children requires a lookup graph", nil)
	}

	generators := make([]generator.Generator[model.Content], 0, len(p.Generators))
	for _, name := range p.Generators {
		generators = append(generators, generatorFactories[name](p, d))
	}
	scorers := make([]scorer.Scorer[model.Content], 0, len(p.Scorers))
	for _, name := range p.Scorers {
		scorers = append(scorers, scorerFactories[name](p, d))
	}
	filters := make([]filter.Filter[model.Content], 0, len(p.Filters))
	for _, name := range p.Filters {
		filters = append(filters, filterFactories[name](p))
	}
	c, err := combiner.New[model.Content](p.Combiner)
	if err != nil {
		return nil, err
	}
	return New(p.Name, generators, scorers, filter.All(filters...), c, d.Persister, d.Reporter, d.Logger), nil
}
