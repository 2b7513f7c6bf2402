package preflight

import (
	"context"
	"strings"

	"equiv/internal/config"
	"equiv/internal/store"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check that applies to cfg. db may be nil when the
// caller has not opened the database yet.
func RunAll(ctx context.Context, cfg *config.Config, db *store.Store) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Lock directory", cfg.LockDir()),
	}
	if db != nil {
		results = append(results, CheckDatabase(ctx, db))
	}
	if cfg.Telemetry.Enabled {
		results = append(results, CheckTelemetryPath(cfg.Telemetry.Path))
	}
	results = append(results, CheckPipelines(cfg))
	return results
}

// Failed returns the failing results joined for an error message.
func Failed(results []Result) string {
	var failures []string
	for _, r := range results {
		if !r.Passed {
			failures = append(failures, r.Name+": "+r.Detail)
		}
	}
	return strings.Join(failures, "; ")
}
