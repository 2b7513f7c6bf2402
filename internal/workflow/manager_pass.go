package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"equiv/internal/logging"
	"equiv/internal/services"
)

// PassSummary reports one pass over a pipeline's subjects.
type PassSummary struct {
	Pipeline       string
	Started        time.Time
	Finished       time.Time
	Skipped        bool
	Cancelled      bool
	Subjects       int
	Succeeded      int
	Failed         int
	Strong         int
	EntriesWritten int
}

// RunPass runs one pass of the named pipeline in the caller's goroutine.
func (m *Manager) RunPass(ctx context.Context, pipeline string) (PassSummary, error) {
	l, ok := m.lane(pipeline)
	if !ok {
		return PassSummary{}, services.Wrap(services.ErrNotFound, "", "run pass", fmt.Sprintf("no enabled pipeline %q", pipeline), nil)
	}
	return m.pass(ctx, l)
}

// RunAll runs one pass of every enabled pipeline in configuration order.
func (m *Manager) RunAll(ctx context.Context) ([]PassSummary, error) {
	summaries := make([]PassSummary, 0, len(m.lanes))
	for _, l := range m.lanes {
		summary, err := m.pass(ctx, l)
		summaries = append(summaries, summary)
		if err != nil {
			return summaries, err
		}
	}
	return summaries, nil
}

func (m *Manager) pass(ctx context.Context, l *lane) (PassSummary, error) {
	summary := PassSummary{Pipeline: l.pipeline.Name, Started: time.Now()}
	ctx = services.WithPipeline(ctx, l.pipeline.Name)

	locked, err := l.lock.TryLock()
	if err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "", "acquire lock", l.lock.Path(), err)
	}
	if !locked {
		summary.Skipped = true
		summary.Finished = time.Now()
		l.logger.Info("pipeline pass skipped",
			logging.Args(logging.DecisionAttrs("pass", "skipped", "lock held by another process")...)...)
		m.recordPass(l, summary)
		return summary, nil
	}
	m.setActive(l, true)
	defer func() {
		m.setActive(l, false)
		if err := l.lock.Unlock(); err != nil {
			l.logger.Warn("release pipeline lock failed", logging.Error(err), logging.String("lock", l.lock.Path()))
		}
	}()

	subjects, err := m.catalog.List(ctx, l.pipeline.Publisher, l.kinds)
	if err != nil {
		return summary, services.Wrap(services.ErrStage, "", "list subjects", l.pipeline.Publisher, err)
	}
	summary.Subjects = len(subjects)
	l.logger.Debug("pipeline pass started",
		logging.Int("subjects", len(subjects)),
		logging.String(logging.FieldEventType, "pass_start"),
	)

	for _, subject := range subjects {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}
		runCtx := services.WithRunID(ctx, uuid.NewString())
		report, err := l.updater.Run(runCtx, subject)
		m.setLastSubject(subject.URI)
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				summary.Cancelled = true
				break
			}
			summary.Failed++
			m.setLastError(err)
			logging.WarnWithContext(logging.WithContext(runCtx, l.logger), "subject run failed", "subject_failed",
				logging.String(logging.FieldSubject, subject.URI),
				logging.String("outcome", services.Outcome(err)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "previous result and graph state kept for this subject"),
			)
			continue
		}
		summary.Succeeded++
		summary.Strong += len(report.Strong)
		summary.EntriesWritten += report.Outcome.EntriesWritten
	}

	summary.Finished = time.Now()
	l.logger.Info("pipeline pass complete",
		logging.Int("subjects", summary.Subjects),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Int("strong", summary.Strong),
		logging.Int("entries_written", summary.EntriesWritten),
		logging.Bool("cancelled", summary.Cancelled),
		logging.Duration("duration", summary.Finished.Sub(summary.Started)),
		logging.String(logging.FieldEventType, "pass_complete"),
	)
	m.recordPass(l, summary)
	if summary.Cancelled {
		return summary, ctx.Err()
	}
	return summary, nil
}
