package workflow

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"equiv/internal/config"
	"equiv/internal/logging"
	"equiv/internal/store"
)

// LaneState is what a pipeline lane is doing right now.
type LaneState string

const (
	LaneDisabled LaneState = "disabled"
	LaneIdle     LaneState = "idle"
	LaneRunning  LaneState = "running"
	// LaneSkipped means the last pass found the pipeline lock held elsewhere.
	LaneSkipped LaneState = "skipped"
)

// PipelineStatus describes one lane.
type PipelineStatus struct {
	Name      string
	Publisher string
	Kinds     []string
	Interval  string
	State     LaneState
	LastPass  PassSummary
}

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running     bool
	LastError   string
	LastSubject string
	Pipelines   []PipelineStatus
	Store       store.Stats
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{Running: m.running, LastSubject: m.lastSubject}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	for _, l := range m.lanes {
		state := LaneIdle
		switch {
		case l.active:
			state = LaneRunning
		case l.last.Skipped:
			state = LaneSkipped
		}
		summary.Pipelines = append(summary.Pipelines, pipelineStatus(l.pipeline, state, l.last))
	}
	m.mu.RUnlock()

	if m.db != nil {
		stats, err := m.db.Stats(ctx)
		if err != nil {
			m.logger.Warn("failed to read store stats", logging.Error(err))
		}
		summary.Store = stats
	}
	return summary
}

// ProbeLanes reports every configured pipeline from outside the process that
// runs it: a pipeline whose lock is held is running, an enabled one whose
// lock is free is idle.
func ProbeLanes(cfg *config.Config) ([]PipelineStatus, error) {
	out := make([]PipelineStatus, 0, len(cfg.Pipelines))
	for _, p := range cfg.Pipelines {
		if p.Disabled {
			out = append(out, pipelineStatus(p, LaneDisabled, PassSummary{}))
			continue
		}
		state, err := probeLock(filepath.Join(cfg.LockDir(), p.Name+".lock"))
		if err != nil {
			return nil, err
		}
		out = append(out, pipelineStatus(p, state, PassSummary{}))
	}
	return out, nil
}

func probeLock(path string) (LaneState, error) {
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return "", fmt.Errorf("probe lock %s: %w", path, err)
	}
	if !locked {
		return LaneRunning, nil
	}
	if err := lock.Unlock(); err != nil {
		return "", fmt.Errorf("release lock %s: %w", path, err)
	}
	return LaneIdle, nil
}

func pipelineStatus(p config.Pipeline, state LaneState, last PassSummary) PipelineStatus {
	return PipelineStatus{
		Name:      p.Name,
		Publisher: p.Publisher,
		Kinds:     p.Kinds,
		Interval:  p.Interval().String(),
		State:     state,
		LastPass:  last,
	}
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastSubject(uri string) {
	m.mu.Lock()
	m.lastSubject = uri
	m.mu.Unlock()
}

func (m *Manager) setActive(l *lane, active bool) {
	m.mu.Lock()
	l.active = active
	m.mu.Unlock()
}

func (m *Manager) recordPass(l *lane, summary PassSummary) {
	m.mu.Lock()
	l.last = summary
	m.mu.Unlock()
}
