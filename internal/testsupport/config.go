package testsupport

import (
	"path/filepath"
	"testing"

	"equiv/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Lookups are unthrottled and pipelines empty unless options add them.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Lookup.RatePerSecond = 0
	cfgVal.Telemetry.Path = filepath.Join(base, "data", "telemetry.jsonl")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithPipeline appends a pipeline built from config.DefaultPipeline and
// customised by edit.
func WithPipeline(name, publisher string, edit func(*config.Pipeline)) ConfigOption {
	return func(b *configBuilder) {
		p := config.DefaultPipeline(name, publisher)
		if edit != nil {
			edit(&p)
		}
		b.cfg.Pipelines = append(b.cfg.Pipelines, p)
	}
}

// WithRetention overrides how many results are kept per subject.
func WithRetention(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Results.Retention = n
	}
}

// WithListings marks publishers as length-capped listings sources.
func WithListings(publishers ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Listings.Publishers = append(b.cfg.Listings.Publishers, publishers...)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
