package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"equiv/internal/config"
	"equiv/internal/store"
	"equiv/internal/updater"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDatabase pings the store with a short timeout and reports row counts.
func CheckDatabase(ctx context.Context, db *store.Store) Result {
	const name = "Database"
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", db.Path(), err)}
	}
	stats, err := db.Stats(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stats: %v)", db.Path(), err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d content, %d lookup entries)", db.Path(), stats.Content, stats.LookupEntries)}
}

// CheckTelemetryPath verifies the telemetry file's directory is writable.
func CheckTelemetryPath(path string) Result {
	r := CheckDirectoryAccess("Telemetry", filepath.Dir(path))
	if r.Passed {
		r.Detail = fmt.Sprintf("%s (writable)", path)
	}
	return r
}

// CheckPipelines verifies that every configured pipeline names known
// strategies.
func CheckPipelines(cfg *config.Config) Result {
	const name = "Pipelines"
	if len(cfg.Pipelines) == 0 {
		return Result{Name: name, Detail: "no pipelines configured"}
	}
	if err := updater.Validate(cfg); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	enabled := 0
	for _, p := range cfg.Pipelines {
		if !p.Disabled {
			enabled++
		}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d configured, %d enabled", len(cfg.Pipelines), enabled)}
}
