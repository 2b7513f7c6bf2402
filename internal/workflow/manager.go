package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"equiv/internal/cache"
	"equiv/internal/catalog"
	"equiv/internal/config"
	"equiv/internal/logging"
	"equiv/internal/lookup"
	"equiv/internal/model"
	"equiv/internal/persist"
	"equiv/internal/resolve"
	"equiv/internal/store"
	"equiv/internal/telemetry"
	"equiv/internal/updater"
)

// Manager coordinates the per-pipeline lanes.
type Manager struct {
	cfg      *config.Config
	db       *store.Store
	catalog  resolve.Catalog
	reporter telemetry.Reporter
	logger   *slog.Logger

	lanes []*lane

	mu          sync.RWMutex
	running     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	lastErr     error
	lastSubject string
}

type lane struct {
	pipeline config.Pipeline
	kinds    []model.Kind
	updater  *updater.Updater[model.Content]
	lock     *flock.Flock
	logger   *slog.Logger

	// guarded by Manager.mu
	last   PassSummary
	active bool
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*managerOptions)

type managerOptions struct {
	catalog  resolve.Catalog
	reporter telemetry.Reporter
	clock    func() time.Time
}

// WithCatalog replaces the SQLite catalog, mainly for tests.
func WithCatalog(c resolve.Catalog) ManagerOption {
	return func(o *managerOptions) { o.catalog = c }
}

// WithReporter replaces the configured telemetry reporter.
func WithReporter(r telemetry.Reporter) ManagerOption {
	return func(o *managerOptions) { o.reporter = r }
}

// WithClock fixes the time the broadcast generator treats as now.
func WithClock(now func() time.Time) ManagerOption {
	return func(o *managerOptions) { o.clock = now }
}

// NewManager builds one lane per enabled pipeline. Strategy names are
// validated here, so a bad configuration fails before any subject runs.
func NewManager(cfg *config.Config, db *store.Store, logger *slog.Logger, opts ...ManagerOption) (*Manager, error) {
	options := &managerOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	cat := options.catalog
	if cat == nil {
		cat = resolve.NewBoundedFromConfig(catalog.New(db, logger), cfg)
	}
	reporter := options.reporter
	if reporter == nil {
		var err error
		reporter, err = telemetry.NewReporter(cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	deps := updater.Deps{
		Catalog:   cat,
		Graph:     lookup.NewStore(db),
		Persister: persist.NewFromConfig(cfg, db, logger),
		Reporter:  reporter,
		Listings:  cfg.Listings,
		Titles:    cache.NewTTL[string]("container-title", cfg.ContainerTitleTTL(), nil, logger),
		Clock:     options.clock,
		Logger:    logger,
	}

	m := &Manager{
		cfg:      cfg,
		db:       db,
		catalog:  cat,
		reporter: reporter,
		logger:   logging.NewComponentLogger(logger, "workflow-manager"),
	}
	for _, p := range cfg.Pipelines {
		if p.Disabled {
			continue
		}
		u, err := updater.Build(p, deps)
		if err != nil {
			_ = reporter.Close()
			return nil, err
		}
		kinds, err := updater.Kinds(p)
		if err != nil {
			_ = reporter.Close()
			return nil, err
		}
		m.lanes = append(m.lanes, &lane{
			pipeline: p,
			kinds:    kinds,
			updater:  u,
			lock:     flock.New(filepath.Join(cfg.LockDir(), p.Name+".lock")),
			logger:   m.logger.With(logging.String(logging.FieldPipeline, p.Name)),
		})
	}
	return m, nil
}

// Close releases the telemetry reporter. The manager must be stopped first.
func (m *Manager) Close() error {
	if m.reporter == nil {
		return nil
	}
	if err := m.reporter.Close(); err != nil {
		return fmt.Errorf("close telemetry: %w", err)
	}
	return nil
}

// Pipelines lists the enabled pipeline names in configuration order.
func (m *Manager) Pipelines() []string {
	names := make([]string, 0, len(m.lanes))
	for _, l := range m.lanes {
		names = append(names, l.pipeline.Name)
	}
	return names
}

func (m *Manager) lane(name string) (*lane, bool) {
	for _, l := range m.lanes {
		if l.pipeline.Name == name {
			return l, true
		}
	}
	return nil, false
}

// laneFor picks the first enabled pipeline covering publisher and kind.
func (m *Manager) laneFor(publisher string, kind model.Kind) (*lane, bool) {
	for _, l := range m.lanes {
		if l.pipeline.Publisher != publisher {
			continue
		}
		for _, k := range l.kinds {
			if k == kind {
				return l, true
			}
		}
	}
	return nil, false
}

// PipelineFor names the pipeline that would process content from publisher
// of the given kind.
func (m *Manager) PipelineFor(publisher string, kind model.Kind) (string, bool) {
	l, ok := m.laneFor(publisher, kind)
	if !ok {
		return "", false
	}
	return l.pipeline.Name, true
}
