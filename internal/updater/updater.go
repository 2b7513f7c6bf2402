package updater

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"equiv/internal/combiner"
	"equiv/internal/filter"
	"equiv/internal/generator"
	"equiv/internal/logging"
	"equiv/internal/model"
	"equiv/internal/persist"
	"equiv/internal/results"
	"equiv/internal/score"
	"equiv/internal/scorer"
	"equiv/internal/services"
	"equiv/internal/telemetry"
	"equiv/internal/trace"
)

// Stage names one step of a run.
type Stage string

const (
	StageGenerate      Stage = "generate"
	StageScore         Stage = "score"
	StageFilter        Stage = "filter"
	StageCombine       Stage = "combine"
	StagePersistResult Stage = "persist_result"
	StageUpdateGraph   Stage = "update_graph"
)

// Persister commits a Result together with the subject's direct edges.
type Persister interface {
	Commit(ctx context.Context, res results.Result) (persist.Outcome, error)
}

// Report summarises a finished run.
type Report struct {
	Result  results.Result
	Outcome persist.Outcome
	Strong  []model.Ref
}

// Updater runs one pipeline for one subject at a time. It holds no per-run
// state and may be shared between goroutines.
type Updater[T model.Entity] struct {
	pipeline   string
	generators []generator.Generator[T]
	scorers    []scorer.Scorer[T]
	filter     filter.Filter[T]
	combiner   *combiner.Combiner[T]
	persister  Persister
	reporter   telemetry.Reporter
	logger     *slog.Logger
}

// New assembles an updater from its strategies.
func New[T model.Entity](pipeline string, generators []generator.Generator[T], scorers []scorer.Scorer[T], f filter.Filter[T], c *combiner.Combiner[T], persister Persister, reporter telemetry.Reporter, logger *slog.Logger) *Updater[T] {
	if f == nil {
		f = filter.All[T]()
	}
	if reporter == nil {
		reporter = telemetry.Nop{}
	}
	return &Updater[T]{
		pipeline:   pipeline,
		generators: generators,
		scorers:    scorers,
		filter:     f,
		combiner:   c,
		persister:  persister,
		reporter:   reporter,
		logger:     logging.NewComponentLogger(logger, "updater"),
	}
}

// Pipeline returns the name of the pipeline this updater runs.
func (u *Updater[T]) Pipeline() string { return u.pipeline }

// Run evaluates subject and commits the Result and direct edges.
func (u *Updater[T]) Run(ctx context.Context, subject T) (Report, error) {
	ctx = services.WithSubject(services.WithPipeline(ctx, u.pipeline), subject.CanonicalURI())
	started := time.Now()
	res, err := u.Evaluate(ctx, subject)
	if err != nil {
		return Report{}, err
	}
	if u.persister == nil {
		return Report{}, services.Wrap(services.ErrConfiguration, string(StagePersistResult), "commit", "no persister configured", nil)
	}

	persistCtx := services.WithStage(ctx, string(StagePersistResult))
	outcome, err := u.persister.Commit(persistCtx, res)
	if err != nil {
		logging.ErrorWithContext(logging.WithContext(persistCtx, u.logger), "result and graph commit failed", "persist_failed",
			logging.Error(err),
			logging.String("outcome", services.Outcome(err)),
			logging.String(logging.FieldErrorHint, "previous result and graph state remain in place; check database health"),
		)
		return Report{}, err
	}
	strong := res.Strong()
	logger := logging.WithContext(services.WithStage(ctx, string(StageUpdateGraph)), u.logger)
	logger.Debug("graph updated",
		logging.Int64("result_id", outcome.ResultID),
		logging.Int("entries_written", outcome.EntriesWritten),
	)
	result := "unchanged"
	if outcome.EntriesWritten > 0 {
		result = "updated"
	}
	logger.Info("subject matched",
		logging.Args(append(logging.DecisionAttrs("equivalence", result, fmt.Sprintf("%d strong candidates", len(strong))),
			logging.Int("strong", len(strong)),
			logging.Duration("run_duration", time.Since(started)),
		)...)...,
	)
	return Report{Result: res, Outcome: outcome, Strong: strong}, nil
}

// Evaluate runs GENERATE through COMBINE and returns the Result without
// persisting anything.
func (u *Updater[T]) Evaluate(ctx context.Context, subject T) (results.Result, error) {
	root := trace.New(fmt.Sprintf("pipeline %s: %s", u.pipeline, subject.CanonicalURI()))

	sets, candidates, err := u.generate(ctx, subject, root)
	if err != nil {
		return results.Result{}, err
	}
	scored, err := u.score(ctx, subject, candidates, root)
	if err != nil {
		return results.Result{}, err
	}
	sets = append(sets, scored...)

	if err := u.enter(ctx, StageFilter); err != nil {
		return results.Result{}, err
	}
	survivors, removed, filterTrace := filter.Run(u.filter, subject, candidates)
	root.Child(filterTrace)
	u.report(ctx, subject, "filter", filterOutcomes(candidates, removed), nil)

	if err := u.enter(ctx, StageCombine); err != nil {
		return results.Result{}, err
	}
	table, combineTrace := u.combiner.Combine(u.pipeline, sets, survivors)
	root.Child(combineTrace)
	u.report(ctx, subject, "combiner", combineOutcomes(table), nil)

	return results.Result{
		Subject:  subject.Ref(),
		Title:    subject.Label(),
		Kind:     subject.KindName(),
		Pipeline: u.pipeline,
		Tables:   []results.Table{table},
		Trace:    root.Node(),
	}, nil
}

func (u *Updater[T]) generate(ctx context.Context, subject T, root *trace.Builder) ([]score.Candidates[T], []T, error) {
	if err := u.enter(ctx, StageGenerate); err != nil {
		return nil, nil, err
	}
	stageTrace := trace.New("generate")
	sets := make([]score.Candidates[T], 0, len(u.generators))
	var candidates []T
	seen := make(map[string]bool)
	for _, g := range u.generators {
		set, tr, err := g.Generate(ctx, subject)
		stageTrace.Child(tr)
		if err != nil {
			u.report(ctx, subject, "generator:"+g.Name(), nil, err)
			return nil, nil, u.fail(ctx, StageGenerate, g.Name(), err)
		}
		u.report(ctx, subject, "generator:"+g.Name(), scoreOutcomes(set), nil)
		sets = append(sets, set)
		for _, c := range set.Candidates() {
			if uri := c.CanonicalURI(); !seen[uri] {
				seen[uri] = true
				candidates = append(candidates, c)
			}
		}
	}
	stageTrace.Linef("%d candidates from %d generators", len(candidates), len(u.generators))
	root.Child(stageTrace.Node())
	return sets, candidates, nil
}

func (u *Updater[T]) score(ctx context.Context, subject T, candidates []T, root *trace.Builder) ([]score.Candidates[T], error) {
	if err := u.enter(ctx, StageScore); err != nil {
		return nil, err
	}
	stageTrace := trace.New("score")
	sets := make([]score.Candidates[T], 0, len(u.scorers))
	for _, s := range u.scorers {
		set, tr, err := s.Score(ctx, subject, candidates)
		stageTrace.Child(tr)
		if err != nil {
			u.report(ctx, subject, "scorer:"+s.Name(), nil, err)
			return nil, u.fail(ctx, StageScore, s.Name(), err)
		}
		u.report(ctx, subject, "scorer:"+s.Name(), scoreOutcomes(set), nil)
		sets = append(sets, set)
	}
	root.Child(stageTrace.Node())
	return sets, nil
}

// enter checks for cancellation before a stage starts.
func (u *Updater[T]) enter(ctx context.Context, stage Stage) error {
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrStage, string(stage), "enter", "run cancelled", err)
	}
	logging.WithContext(services.WithStage(ctx, string(stage)), u.logger).Debug("stage started",
		logging.String(logging.FieldEventType, "stage_start"))
	return nil
}

func (u *Updater[T]) fail(ctx context.Context, stage Stage, component string, err error) error {
	wrapped := services.Wrap(services.ErrStage, string(stage), component, "", err)
	logging.ErrorWithContext(logging.WithContext(services.WithStage(ctx, string(stage)), u.logger), "stage failed", "stage_failure",
		logging.String("strategy", component),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "previous result and graph state remain in place"),
	)
	return wrapped
}

func (u *Updater[T]) report(ctx context.Context, subject T, component string, outcomes map[string]string, err error) {
	result := telemetry.ComponentResult{
		Pipeline:  u.pipeline,
		Subject:   subject.CanonicalURI(),
		Component: component,
		Outcomes:  outcomes,
	}
	if id, ok := services.RunIDFromContext(ctx); ok {
		result.RunID = id
	}
	if err != nil {
		result.Error = err.Error()
	}
	telemetry.Emit(ctx, u.reporter, u.logger, result)
}

func scoreOutcomes[T score.Keyed](set score.Candidates[T]) map[string]string {
	out := make(map[string]string, set.Len())
	set.Each(func(c T, s score.Score) bool {
		out[c.CanonicalURI()] = s.String()
		return true
	})
	return out
}

func filterOutcomes[T score.Keyed](candidates []T, removed map[string]string) map[string]string {
	out := make(map[string]string, len(candidates))
	for _, c := range candidates {
		uri := c.CanonicalURI()
		if reason, ok := removed[uri]; ok {
			out[uri] = "removed: " + reason
			continue
		}
		out[uri] = "kept"
	}
	return out
}

func combineOutcomes(table results.Table) map[string]string {
	out := make(map[string]string, len(table.Rows))
	for _, row := range table.Rows {
		verdict := "weak"
		if row.Strong {
			verdict = "strong"
		}
		out[row.Candidate.URI] = verdict + " " + row.Combined.String()
	}
	return out
}

