package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"equiv/internal/logging"
)

// Start runs preflight checks and launches one goroutine per lane.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.lanes) == 0 {
		m.mu.Unlock()
		return errors.New("no enabled pipelines configured")
	}
	m.mu.Unlock()

	if err := m.runPreflightChecks(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(len(m.lanes))
	for _, l := range m.lanes {
		go m.runLane(runCtx, l)
	}
	return nil
}

// Stop cancels every lane and waits for in-flight subjects to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Wait blocks until every lane has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) runLane(ctx context.Context, l *lane) {
	defer m.wg.Done()
	interval := l.pipeline.Interval()
	l.logger.Info("pipeline lane started",
		logging.Duration("interval", interval),
		logging.Strings("kinds", l.pipeline.Kinds),
		logging.String(logging.FieldEventType, "lane_start"),
	)
	for {
		if _, err := m.pass(ctx, l); err != nil && !errors.Is(err, context.Canceled) {
			m.setLastError(err)
			logging.ErrorWithContext(l.logger, "pipeline pass failed", "pass_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check catalog access and the lock directory"),
				logging.String(logging.FieldImpact, fmt.Sprintf("retrying in %s", interval)),
			)
		}
		select {
		case <-ctx.Done():
			l.logger.Info("pipeline lane stopped", logging.String(logging.FieldEventType, "lane_stop"))
			return
		case <-time.After(interval):
		}
	}
}
