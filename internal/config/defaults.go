package config

const (
	defaultConfigPath             = "~/.config/equiv/config.toml"
	defaultDataDir                = "~/.local/share/equiv"
	defaultLogDir                 = "~/.local/share/equiv/logs"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLookupTimeoutSeconds   = 10
	defaultLookupRatePerSecond    = 20
	defaultLookupBurst            = 10
	defaultContainerTitleTTL      = 60
	defaultResultRetention        = 10
	defaultIntervalSeconds        = 900
	defaultPersistTimeoutSeconds  = 30
	defaultConflictRetries        = 5
	defaultListingsTitleCap       = 30
	defaultListingsShortTitle     = 15
	defaultTelemetryFile          = "telemetry.jsonl"
	defaultBroadcastWindowMinutes = 60
	defaultToleranceMinutes       = 5
	defaultShortToleranceMinutes  = 2
	defaultShortBroadcastMinutes  = 10
	defaultBroadcastMaxScore      = 1.0
	defaultTitlePerfectScore      = 2.0
	defaultTitlePartialScore      = 1.0
	defaultWordMatchRatio         = 0.5
	defaultWordPartialRatio       = 0.25
	defaultWordMatchScore         = 1.0
	defaultWordPartialScore       = 0.5
	defaultPerfectSimilarity      = 0.95
	defaultPartialSimilarity      = 0.8
	defaultSequenceMatchScore     = 1.0
	defaultFilmYearTolerance      = 1
	defaultCombinerMode           = "sum"
	defaultStrongThreshold        = 2.0
)

// Default returns a Config populated with repository defaults. It carries no
// pipelines; those always come from the configuration file.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Lookup: Lookup{
			TimeoutSeconds: defaultLookupTimeoutSeconds,
			RatePerSecond:  defaultLookupRatePerSecond,
			Burst:          defaultLookupBurst,
		},
		Cache: Cache{
			ContainerTitleTTLSeconds: defaultContainerTitleTTL,
		},
		Results: Results{
			Retention: defaultResultRetention,
		},
		Workflow: Workflow{
			IntervalSeconds:       defaultIntervalSeconds,
			PersistTimeoutSeconds: defaultPersistTimeoutSeconds,
			ConflictRetries:       defaultConflictRetries,
		},
		Listings: Listings{
			TitleCap:         defaultListingsTitleCap,
			ShortTitleLength: defaultListingsShortTitle,
		},
	}
}

// DefaultPipeline returns a broadcast-matching item pipeline for publisher with
// every tunable at its documented default.
func DefaultPipeline(name, publisher string) Pipeline {
	p := Pipeline{
		Name:       name,
		Publisher:  publisher,
		Kinds:      []string{"item", "episode"},
		Generators: []string{"broadcast"},
		Scorers:    []string{"title", "description"},
		Filters:    []string{"published", "not_self", "distinct_publisher", "media_type"},
	}
	p.applyDefaults(defaultIntervalSeconds)
	return p
}

// applyDefaults fills every positive-only tunable left at zero. Scores that
// may legitimately be zero or negative (mismatch scores) are left alone.
func (p *Pipeline) applyDefaults(interval int) {
	if p.IntervalSeconds <= 0 {
		p.IntervalSeconds = interval
	}
	b := &p.Broadcast
	setInt(&b.WindowMinutes, defaultBroadcastWindowMinutes)
	setInt(&b.ToleranceMinutes, defaultToleranceMinutes)
	setInt(&b.ShortToleranceMinutes, defaultShortToleranceMinutes)
	setInt(&b.ShortBroadcastMinutes, defaultShortBroadcastMinutes)
	setFloat(&b.MaxScore, defaultBroadcastMaxScore)
	setFloat(&b.MatchScore, defaultBroadcastMaxScore)
	setFloat(&b.PartialScore, defaultBroadcastMaxScore/2)

	setFloat(&p.Title.PerfectScore, defaultTitlePerfectScore)
	setFloat(&p.Title.PartialScore, defaultTitlePartialScore)

	for _, w := range []*WordScoring{&p.Description, &p.DescriptionTitle} {
		setFloat(&w.MatchRatio, defaultWordMatchRatio)
		setFloat(&w.PartialRatio, defaultWordPartialRatio)
		setFloat(&w.MatchScore, defaultWordMatchScore)
		setFloat(&w.PartialScore, defaultWordPartialScore)
	}

	setFloat(&p.EditDistance.PerfectSimilarity, defaultPerfectSimilarity)
	setFloat(&p.EditDistance.PartialSimilarity, defaultPartialSimilarity)
	setFloat(&p.EditDistance.PerfectScore, defaultTitlePerfectScore)
	setFloat(&p.EditDistance.PartialScore, defaultTitlePartialScore)

	setFloat(&p.Sequence.MatchScore, defaultSequenceMatchScore)
	setInt(&p.Film.YearTolerance, defaultFilmYearTolerance)

	if p.Combiner.Mode == "" {
		p.Combiner.Mode = defaultCombinerMode
	}
	setFloat(&p.Combiner.StrongThreshold, defaultStrongThreshold)
}

func setInt(v *int, fallback int) {
	if *v <= 0 {
		*v = fallback
	}
}

func setFloat(v *float64, fallback float64) {
	if *v <= 0 {
		*v = fallback
	}
}
