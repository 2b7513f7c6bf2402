// Package results holds the per-run Result produced by the combiner and the
// SQLite repository that keeps the latest runs per subject.
//
// A Result's body is stored as JSON without its recording time, so two runs
// over unchanged data produce byte-identical bodies. Queries distinguish an
// unknown subject (services.ErrNotFound) from a known subject that has not
// been run yet (ErrNoResult).
package results
