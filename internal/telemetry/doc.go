// Package telemetry records per-stage component results for offline
// analysis of matching quality.
//
// Each generator, scorer and filter of a run reports one ComponentResult
// naming the component and the outcome it reached for every candidate. The
// default reporter logs at debug level; when telemetry is enabled in
// config.toml results are also appended to a JSON lines file. Reporting is
// best effort: Emit logs a failed report and carries on, so a broken sink
// never fails a pipeline run.
package telemetry
