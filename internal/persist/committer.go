package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"equiv/internal/config"
	"equiv/internal/logging"
	"equiv/internal/lookup"
	"equiv/internal/results"
	"equiv/internal/services"
	"equiv/internal/store"
)

// Outcome describes one commit.
type Outcome struct {
	ResultID       int64
	RecordedAt     time.Time
	EntriesWritten int
}

// Committer writes a Result and the subject's new direct edges in a single
// transaction. Either both land or neither does.
type Committer struct {
	db       *store.Store
	graph    *lookup.Store
	results  *results.Repository
	timeout  time.Duration
	attempts int
	now      func() time.Time
	logger   *slog.Logger
}

// NewCommitter builds a committer from its collaborators.
func NewCommitter(db *store.Store, graph *lookup.Store, repo *results.Repository, timeout time.Duration, attempts int, logger *slog.Logger) *Committer {
	return &Committer{
		db:       db,
		graph:    graph,
		results:  repo,
		timeout:  timeout,
		attempts: attempts,
		now:      time.Now,
		logger:   logging.NewComponentLogger(logger, "persist"),
	}
}

// NewFromConfig wires a committer from configuration.
func NewFromConfig(cfg *config.Config, db *store.Store, logger *slog.Logger) *Committer {
	return NewCommitter(db, lookup.NewStore(db), results.NewRepository(db, cfg.Results.Retention),
		cfg.PersistTimeout(), cfg.Workflow.ConflictRetries, logger)
}

// WithClock overrides the wall clock used for RecordedAt.
func (c *Committer) WithClock(now func() time.Time) *Committer {
	c.now = now
	return c
}

// Commit persists res. It runs detached from ctx's cancellation so a run
// that reached persistence always finishes, bounded by the persist timeout.
func (c *Committer) Commit(ctx context.Context, res results.Result) (Outcome, error) {
	ctx = context.WithoutCancel(ctx)
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if res.Subject.ID == 0 || res.Subject.URI == "" {
		return Outcome{}, services.Wrap(services.ErrValidation, "persist", "commit", "result subject has no identity", nil)
	}

	strong := res.Strong()
	recordedAt := c.now().UTC()
	var out Outcome
	attempt := 0
	err := lookup.RetryConflicts(ctx, c.attempts, func() error {
		attempt++
		return c.db.WithTx(ctx, func(tx *sql.Tx) error {
			id, err := c.results.Insert(ctx, tx, res, recordedAt)
			if err != nil {
				return err
			}
			plan, err := lookup.PlanDirect(ctx, c.graph.Reader(tx), res.Subject, strong)
			if err != nil {
				return err
			}
			written, err := c.graph.Apply(ctx, tx, plan)
			if err != nil {
				return err
			}
			out = Outcome{ResultID: id, RecordedAt: recordedAt, EntriesWritten: written}
			return nil
		})
	})
	if err != nil {
		detail := res.Subject.URI
		if errors.Is(err, context.DeadlineExceeded) {
			detail = fmt.Sprintf("%s: gave up after %s", res.Subject.URI, c.timeout)
		}
		return Outcome{}, services.Wrap(services.ErrPersistence, "persist", "commit", detail, err)
	}
	if attempt > 1 {
		c.logger.Info("commit succeeded after version conflicts",
			logging.String(logging.FieldSubject, res.Subject.URI),
			logging.Int("attempts", attempt),
		)
	}
	return out, nil
}
