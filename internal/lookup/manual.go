package lookup

import (
	"context"
	"database/sql"
	"log/slog"

	"equiv/internal/logging"
	"equiv/internal/model"
)

// ManualService applies operator edge assertions. The pipeline never writes
// explicit or blacklist edges, so these survive every automated run.
type ManualService struct {
	store    *Store
	attempts int
	logger   *slog.Logger
}

// NewManualService builds the service. attempts bounds conflict retries.
func NewManualService(store *Store, attempts int, logger *slog.Logger) *ManualService {
	return &ManualService{
		store:    store,
		attempts: attempts,
		logger:   logging.NewComponentLogger(logger, "lookup-manual"),
	}
}

// AddExplicit links from and to, each given as an ID or canonical URI.
func (m *ManualService) AddExplicit(ctx context.Context, from, to string) error {
	return m.apply(ctx, "explicit_add", from, to, func(ctx context.Context, r Reader, a, b model.Ref) (*Plan, error) {
		return PlanExplicit(ctx, r, a, b, true)
	})
}

// RemoveExplicit drops an operator link.
func (m *ManualService) RemoveExplicit(ctx context.Context, from, to string) error {
	return m.apply(ctx, "explicit_remove", from, to, func(ctx context.Context, r Reader, a, b model.Ref) (*Plan, error) {
		return PlanExplicit(ctx, r, a, b, false)
	})
}

// AddBlacklist forbids an edge and retracts any direct edge between the pair.
func (m *ManualService) AddBlacklist(ctx context.Context, from, to string) error {
	return m.apply(ctx, "blacklist_add", from, to, func(ctx context.Context, r Reader, a, b model.Ref) (*Plan, error) {
		return PlanBlacklist(ctx, r, a, b, true)
	})
}

// RemoveBlacklist lifts a forbidden edge. Direct edges come back only on the
// next pipeline run.
func (m *ManualService) RemoveBlacklist(ctx context.Context, from, to string) error {
	return m.apply(ctx, "blacklist_remove", from, to, func(ctx context.Context, r Reader, a, b model.Ref) (*Plan, error) {
		return PlanBlacklist(ctx, r, a, b, false)
	})
}

func (m *ManualService) apply(ctx context.Context, action, from, to string, planFn func(context.Context, Reader, model.Ref, model.Ref) (*Plan, error)) error {
	var a, b Entry
	written, err := m.store.Update(ctx, m.attempts, func(ctx context.Context, tx *sql.Tx) (*Plan, error) {
		var err error
		if a, err = resolveKey(ctx, tx, from); err != nil {
			return nil, err
		}
		if b, err = resolveKey(ctx, tx, to); err != nil {
			return nil, err
		}
		return planFn(ctx, m.store.Reader(tx), a.Ref(), b.Ref())
	})
	if err != nil {
		return err
	}
	m.logger.Info("manual edge applied",
		logging.Args(append(logging.DecisionAttrs("manual_edge", action, "operator request"),
			logging.String("from", a.URI),
			logging.String("to", b.URI),
			logging.Int("entries_written", written),
		)...)...)
	return nil
}
