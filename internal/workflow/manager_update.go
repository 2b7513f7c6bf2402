package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"equiv/internal/services"
	"equiv/internal/updater"
)

// Update re-resolves one subject with the pipeline that covers it. A dry run
// evaluates without persisting; its report carries no outcome.
func (m *Manager) Update(ctx context.Context, uri string, dryRun bool) (updater.Report, error) {
	subject, err := m.catalog.Content(ctx, uri)
	if err != nil {
		return updater.Report{}, err
	}
	l, ok := m.laneFor(subject.Publisher, subject.Kind)
	if !ok {
		return updater.Report{}, services.Wrap(services.ErrNotFound, "", "update",
			fmt.Sprintf("no enabled pipeline for %s content from %s", subject.Kind, subject.Publisher), nil)
	}

	ctx = services.WithRunID(services.WithPipeline(ctx, l.pipeline.Name), uuid.NewString())
	if dryRun {
		res, err := l.updater.Evaluate(services.WithSubject(ctx, subject.URI), subject)
		if err != nil {
			return updater.Report{}, err
		}
		return updater.Report{Result: res, Strong: res.Strong()}, nil
	}
	report, err := l.updater.Run(ctx, subject)
	m.setLastSubject(subject.URI)
	if err != nil {
		m.setLastError(err)
	}
	return report, err
}
