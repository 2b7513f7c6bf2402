package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Strategy names are checked
// later, when pipelines are assembled, against the closed set of variants.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateLookup(); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"results.retention":                 c.Results.Retention,
		"workflow.interval_seconds":         c.Workflow.IntervalSeconds,
		"workflow.persist_timeout_seconds":  c.Workflow.PersistTimeoutSeconds,
		"workflow.conflict_retries":         c.Workflow.ConflictRetries,
		"cache.container_title_ttl_seconds": c.Cache.ContainerTitleTTLSeconds,
		"listings.title_cap":                c.Listings.TitleCap,
		"listings.short_title_length":       c.Listings.ShortTitleLength,
	}); err != nil {
		return err
	}
	return c.validatePipelines()
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func (c *Config) validateLookup() error {
	if c.Lookup.TimeoutSeconds <= 0 {
		return errors.New("lookup.timeout_seconds must be positive")
	}
	if c.Lookup.RatePerSecond < 0 {
		return errors.New("lookup.rate_per_second must not be negative (0 disables throttling)")
	}
	if c.Lookup.Burst <= 0 {
		return errors.New("lookup.burst must be positive")
	}
	return nil
}

func (c *Config) validatePipelines() error {
	names := make(map[string]struct{}, len(c.Pipelines))
	for i, p := range c.Pipelines {
		label := fmt.Sprintf("pipelines[%d]", i)
		if p.Name != "" {
			label = fmt.Sprintf("pipelines[%s]", p.Name)
		}
		if p.Publisher == "" {
			return fmt.Errorf("%s.publisher must be set", label)
		}
		if _, dup := names[p.Name]; dup {
			return fmt.Errorf("%s: duplicate pipeline name", label)
		}
		names[p.Name] = struct{}{}
		if len(p.Kinds) == 0 {
			return fmt.Errorf("%s.kinds must list at least one content kind", label)
		}
		if len(p.Generators) == 0 {
			return fmt.Errorf("%s.generators must list at least one generator", label)
		}
		for _, target := range p.TargetPublishers {
			if strings.EqualFold(target, p.Publisher) {
				return fmt.Errorf("%s.target_publishers must not include the pipeline publisher %q", label, p.Publisher)
			}
		}
		switch p.Combiner.Mode {
		case "sum", "max":
		default:
			return fmt.Errorf("%s.combiner.mode: unsupported value %q (want sum or max)", label, p.Combiner.Mode)
		}
		if p.EditDistance.PartialSimilarity > p.EditDistance.PerfectSimilarity {
			return fmt.Errorf("%s.edit_distance.partial_similarity must not exceed perfect_similarity", label)
		}
		for _, ratio := range []float64{p.Description.MatchRatio, p.Description.PartialRatio, p.DescriptionTitle.MatchRatio, p.DescriptionTitle.PartialRatio} {
			if ratio > 1 {
				return fmt.Errorf("%s: word overlap ratios must be between 0 and 1", label)
			}
		}
		if p.Broadcast.ShortToleranceMinutes > p.Broadcast.ToleranceMinutes {
			return fmt.Errorf("%s.broadcast.short_tolerance_minutes must not exceed tolerance_minutes", label)
		}
		for source, w := range p.Combiner.Weights {
			if w < 0 {
				return fmt.Errorf("%s.combiner.weights.%s must not be negative", label, source)
			}
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
