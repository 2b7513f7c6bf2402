// Package services defines shared utilities consumed by the pipeline stages
// and the collaborators they call.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, pipeline names, stage names, and
//     subject URIs for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     as stage, persistence, timeout, or not-found outcomes.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability, retries) stays uniform across the pipeline.
package services
