package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Lookup bounds every catalog, schedule and channel lookup.
type Lookup struct {
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RatePerSecond  float64 `toml:"rate_per_second"`
	Burst          int     `toml:"burst"`
}

// Cache configures the container title cache used while scoring titles.
type Cache struct {
	ContainerTitleTTLSeconds int `toml:"container_title_ttl_seconds"`
}

// Results configures result history.
type Results struct {
	// Retention is how many runs are kept per subject.
	Retention int `toml:"retention"`
}

// Workflow contains scheduling and persistence timing.
type Workflow struct {
	IntervalSeconds       int `toml:"interval_seconds"`
	PersistTimeoutSeconds int `toml:"persist_timeout_seconds"`
	ConflictRetries       int `toml:"conflict_retries"`
}

// Telemetry configures the per-stage component report sink.
type Telemetry struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Listings describes length-capped listings publishers whose titles need
// rewriting before comparison.
type Listings struct {
	Publishers       []string          `toml:"publishers"`
	TitleCap         int               `toml:"title_cap"`
	ShortTitleLength int               `toml:"short_title_length"`
	Aliases          map[string]string `toml:"aliases"`
}

// Config encapsulates all configuration values for the equivalence engine.
//
// Configuration sections by subsystem:
//   - Paths: database, lock and log directories
//   - Logging: log format and level
//   - Lookup: timeout and rate limit for collaborator lookups
//   - Cache: container title cache expiry
//   - Results: per-subject result retention
//   - Workflow: pass interval, persistence timeout and conflict retries
//   - Telemetry: component report sink
//   - Listings: listings publishers and their title rewrite rules
//   - Pipelines: one entry per publisher/content-kind pairing
type Config struct {
	Paths     Paths      `toml:"paths"`
	Logging   Logging    `toml:"logging"`
	Lookup    Lookup     `toml:"lookup"`
	Cache     Cache      `toml:"cache"`
	Results   Results    `toml:"results"`
	Workflow  Workflow   `toml:"workflow"`
	Telemetry Telemetry  `toml:"telemetry"`
	Listings  Listings   `toml:"listings"`
	Pipelines []Pipeline `toml:"pipelines"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("equiv.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, lock and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.LockDir(), c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath is the SQLite database holding the catalog, lookup graph and results.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "equiv.db")
}

// LockDir holds one lock file per pipeline.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.DataDir, "locks")
}

// LookupTimeout bounds a single collaborator lookup.
func (c *Config) LookupTimeout() time.Duration {
	return time.Duration(c.Lookup.TimeoutSeconds) * time.Second
}

// ContainerTitleTTL is how long a parent title is served from cache.
func (c *Config) ContainerTitleTTL() time.Duration {
	return time.Duration(c.Cache.ContainerTitleTTLSeconds) * time.Second
}

// PersistTimeout bounds the detached result and graph commit.
func (c *Config) PersistTimeout() time.Duration {
	return time.Duration(c.Workflow.PersistTimeoutSeconds) * time.Second
}

// Pipeline returns the configured pipeline with the given name.
func (c *Config) Pipeline(name string) (Pipeline, bool) {
	for _, p := range c.Pipelines {
		if p.Name == name {
			return p, true
		}
	}
	return Pipeline{}, false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
