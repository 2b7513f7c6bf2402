package workflow

import (
	"context"
	"fmt"

	"equiv/internal/logging"
	"equiv/internal/preflight"
)

// runPreflightChecks validates paths, database and pipelines before any lane
// starts. Returns nil when all checks pass, or an error describing all failures.
func (m *Manager) runPreflightChecks(ctx context.Context) error {
	results := preflight.RunAll(ctx, m.cfg, m.db)
	for _, r := range results {
		if r.Passed {
			m.logger.Debug("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldEventType, "preflight_passed"),
			)
			continue
		}
		m.logger.Error("preflight check failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldEventType, "preflight_failed"),
			logging.String(logging.FieldErrorHint, "fix the reported issue and restart"),
		)
	}
	if failed := preflight.Failed(results); failed != "" {
		return fmt.Errorf("preflight checks failed: %s", failed)
	}
	return nil
}
