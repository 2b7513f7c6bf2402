package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"equiv/internal/config"
	"equiv/internal/logging"
)

// ComponentResult is one component's verdict on the candidates of a run.
type ComponentResult struct {
	RunID     string            `json:"run_id,omitempty"`
	Pipeline  string            `json:"pipeline,omitempty"`
	Subject   string            `json:"subject"`
	Component string            `json:"component"`
	Outcomes  map[string]string `json:"outcomes,omitempty"`
	Error     string            `json:"error,omitempty"`
	At        time.Time         `json:"at"`
}

// Reporter accepts component results.
type Reporter interface {
	Report(ctx context.Context, result ComponentResult) error
	Close() error
}

// NewReporter builds the reporter described by cfg: always a log reporter,
// plus a JSON lines file when telemetry is enabled.
func NewReporter(cfg *config.Config, logger *slog.Logger) (Reporter, error) {
	log := NewLogReporter(logger)
	if cfg == nil || !cfg.Telemetry.Enabled {
		return log, nil
	}
	file, err := NewFileReporter(cfg.Telemetry.Path)
	if err != nil {
		return nil, err
	}
	return Multi(log, file), nil
}

// Emit reports result and logs, rather than returns, any failure.
func Emit(ctx context.Context, r Reporter, logger *slog.Logger, result ComponentResult) {
	if r == nil {
		return
	}
	if result.At.IsZero() {
		result.At = time.Now().UTC()
	}
	if err := r.Report(ctx, result); err != nil {
		logging.WarnWithContext(logging.NewComponentLogger(logger, "telemetry"), "telemetry report failed", "telemetry_failed",
			logging.String("telemetry_component", result.Component),
			logging.String(logging.FieldSubject, result.Subject),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the telemetry path is writable"),
			logging.String(logging.FieldImpact, "component result not recorded"),
		)
	}
}

// Nop discards every result.
type Nop struct{}

func (Nop) Report(context.Context, ComponentResult) error { return nil }
func (Nop) Close() error                                  { return nil }

type logReporter struct {
	logger *slog.Logger
}

// NewLogReporter writes each result as a debug log line.
func NewLogReporter(logger *slog.Logger) Reporter {
	return &logReporter{logger: logging.NewComponentLogger(logger, "telemetry")}
}

func (l *logReporter) Report(ctx context.Context, result ComponentResult) error {
	l.logger.DebugContext(ctx, "component result",
		logging.String("telemetry_component", result.Component),
		logging.String(logging.FieldSubject, result.Subject),
		logging.Int("candidates", len(result.Outcomes)),
		logging.String("error", result.Error),
	)
	return nil
}

func (l *logReporter) Close() error { return nil }

// FileReporter appends results to a JSON lines file.
type FileReporter struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewFileReporter opens path for appending, creating parent directories.
func NewFileReporter(path string) (*FileReporter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create telemetry directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open telemetry file: %w", err)
	}
	return &FileReporter{file: f, enc: json.NewEncoder(f)}, nil
}

func (f *FileReporter) Report(_ context.Context, result ComponentResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return errors.New("telemetry file closed")
	}
	if err := f.enc.Encode(result); err != nil {
		return fmt.Errorf("write telemetry: %w", err)
	}
	return nil
}

func (f *FileReporter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

type multi []Reporter

// Multi sends every result to each reporter. All reporters are tried; their
// errors are joined.
func Multi(reporters ...Reporter) Reporter {
	return multi(reporters)
}

func (m multi) Report(ctx context.Context, result ComponentResult) error {
	var errs []error
	for _, r := range m {
		if err := r.Report(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multi) Close() error {
	var errs []error
	for _, r := range m {
		if err := r.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
