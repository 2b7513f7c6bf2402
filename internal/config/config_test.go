package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"equiv/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("EQUIV_DATA_DIR", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "equiv")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "equiv.db") {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath())
	}
	if cfg.Telemetry.Path != filepath.Join(wantData, "telemetry.jsonl") {
		t.Fatalf("unexpected telemetry path %q", cfg.Telemetry.Path)
	}
	if cfg.ContainerTitleTTL().Seconds() != 60 {
		t.Fatalf("unexpected container title ttl %v", cfg.ContainerTitleTTL())
	}
	if len(cfg.Pipelines) != 0 {
		t.Fatalf("expected no pipelines by default, got %d", len(cfg.Pipelines))
	}
}

func TestEnvOverridesDataDirAndLevel(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("EQUIV_DATA_DIR", dataDir)
	t.Setenv("EQUIV_LOG_LEVEL", "DEBUG")

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DataDir != dataDir {
		t.Fatalf("expected env data dir, got %q", cfg.Paths.DataDir)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected env log level, got %q", cfg.Logging.Level)
	}
}

func TestLoadPipelinesAppliesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "equiv.toml")
	content := `
[[pipelines]]
name = "bbc-items"
publisher = "bbc.co.uk"
kinds = ["Item", "episode", "item"]
generators = ["broadcast"]
scorers = ["title"]

[pipelines.title]
mismatch_score = -0.5

[pipelines.combiner]
strong_threshold = 3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config to exist")
	}
	p, ok := cfg.Pipeline("bbc-items")
	if !ok {
		t.Fatal("pipeline not found")
	}
	if strings.Join(p.Kinds, ",") != "item,episode" {
		t.Fatalf("kinds not normalized: %v", p.Kinds)
	}
	if p.Broadcast.ToleranceMinutes != 5 || p.Broadcast.ShortToleranceMinutes != 2 || p.Broadcast.ShortBroadcastMinutes != 10 {
		t.Fatalf("broadcast defaults not applied: %+v", p.Broadcast)
	}
	if p.Title.PerfectScore != 2.0 || p.Title.PartialScore != 1.0 {
		t.Fatalf("title defaults not applied: %+v", p.Title)
	}
	if p.Title.MismatchScore != -0.5 {
		t.Fatalf("explicit mismatch score lost: %v", p.Title.MismatchScore)
	}
	if p.Combiner.Mode != "sum" || p.Combiner.StrongThreshold != 3 {
		t.Fatalf("unexpected combiner: %+v", p.Combiner)
	}
	if p.Combiner.Weight("title") != 1 {
		t.Fatalf("unset weight should default to 1")
	}
	if p.Interval() != time.Duration(cfg.Workflow.IntervalSeconds)*time.Second {
		t.Fatalf("pipeline interval should inherit workflow interval, got %v", p.Interval())
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "equiv.toml")
	if err := os.WriteFile(path, []byte("[lookup]\ntimeout = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown field to fail")
	}
}

func TestCreateSample(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var raw config.Config
	if err := toml.Unmarshal(contents, &raw); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if len(raw.Pipelines) != 3 {
		t.Fatalf("expected three sample pipelines, got %d", len(raw.Pipelines))
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	films, ok := cfg.Pipeline("bbc-films")
	if !ok || films.Combiner.Mode != "max" || films.Film.YearTolerance != 1 {
		t.Fatalf("unexpected film pipeline: %+v", films)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	base := func() config.Config {
		cfg := config.Default()
		cfg.Pipelines = []config.Pipeline{config.DefaultPipeline("bbc-items", "bbc.co.uk")}
		return cfg
	}

	cfg := base()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}

	cfg = base()
	cfg.Lookup.TimeoutSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive lookup timeout")
	}

	cfg = base()
	cfg.Pipelines[0].Publisher = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing publisher")
	}

	cfg = base()
	cfg.Pipelines = append(cfg.Pipelines, cfg.Pipelines[0])
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for duplicate pipeline names")
	}

	cfg = base()
	cfg.Pipelines[0].TargetPublishers = []string{"bbc.co.uk"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when targeting own publisher")
	}

	cfg = base()
	cfg.Pipelines[0].Combiner.Mode = "product"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown combiner mode")
	}

	cfg = base()
	cfg.Pipelines[0].Broadcast.ShortToleranceMinutes = 10
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when short tolerance exceeds tolerance")
	}

	cfg = base()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}
