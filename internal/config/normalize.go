package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeLookup()
	c.normalizeListings()
	c.normalizePipelines()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("EQUIV_DATA_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.DataDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Telemetry.Path = strings.TrimSpace(c.Telemetry.Path)
	if c.Telemetry.Path == "" {
		c.Telemetry.Path = filepath.Join(c.Paths.DataDir, defaultTelemetryFile)
	}
	if c.Telemetry.Path, err = expandPath(c.Telemetry.Path); err != nil {
		return fmt.Errorf("telemetry.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	if value, ok := os.LookupEnv("EQUIV_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeLookup() {
	if c.Lookup.TimeoutSeconds <= 0 {
		c.Lookup.TimeoutSeconds = defaultLookupTimeoutSeconds
	}
	if c.Lookup.Burst <= 0 {
		c.Lookup.Burst = defaultLookupBurst
	}
	if c.Cache.ContainerTitleTTLSeconds <= 0 {
		c.Cache.ContainerTitleTTLSeconds = defaultContainerTitleTTL
	}
	if c.Results.Retention <= 0 {
		c.Results.Retention = defaultResultRetention
	}
	if c.Workflow.IntervalSeconds <= 0 {
		c.Workflow.IntervalSeconds = defaultIntervalSeconds
	}
	if c.Workflow.PersistTimeoutSeconds <= 0 {
		c.Workflow.PersistTimeoutSeconds = defaultPersistTimeoutSeconds
	}
	if c.Workflow.ConflictRetries <= 0 {
		c.Workflow.ConflictRetries = defaultConflictRetries
	}
}

func (c *Config) normalizeListings() {
	c.Listings.Publishers = normalizeList(c.Listings.Publishers, false)
	if c.Listings.TitleCap <= 0 {
		c.Listings.TitleCap = defaultListingsTitleCap
	}
	if c.Listings.ShortTitleLength <= 0 {
		c.Listings.ShortTitleLength = defaultListingsShortTitle
	}
	if len(c.Listings.Aliases) > 0 {
		aliases := make(map[string]string, len(c.Listings.Aliases))
		for from, to := range c.Listings.Aliases {
			from = strings.ToLower(strings.TrimSpace(from))
			if from == "" {
				continue
			}
			aliases[from] = strings.ToLower(strings.TrimSpace(to))
		}
		c.Listings.Aliases = aliases
	}
}

func (c *Config) normalizePipelines() {
	for i := range c.Pipelines {
		p := &c.Pipelines[i]
		p.Name = strings.TrimSpace(p.Name)
		p.Publisher = strings.TrimSpace(p.Publisher)
		if p.Name == "" && p.Publisher != "" {
			p.Name = p.Publisher + "-" + strconv.Itoa(i+1)
		}
		p.Kinds = normalizeList(p.Kinds, true)
		p.TargetPublishers = normalizeList(p.TargetPublishers, false)
		p.Generators = normalizeList(p.Generators, true)
		p.Scorers = normalizeList(p.Scorers, true)
		p.Filters = normalizeList(p.Filters, true)
		p.Combiner.Mode = strings.ToLower(strings.TrimSpace(p.Combiner.Mode))
		p.Combiner.Required = normalizeList(p.Combiner.Required, true)
		p.applyDefaults(c.Workflow.IntervalSeconds)
	}
}

// normalizeList trims, optionally lower-cases, and de-duplicates values while
// keeping their order.
func normalizeList(values []string, lower bool) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
