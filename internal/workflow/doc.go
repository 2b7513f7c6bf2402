// Package workflow schedules equivalence runs.
//
// The Manager runs one lane per enabled pipeline. Each lane wakes on the
// pipeline's interval, takes the pipeline's lock file, lists the publisher's
// catalog for the configured content kinds and runs the pipeline's Updater on
// every subject. Cancellation is checked between subjects; a subject that has
// reached persistence always finishes its commit.
//
// The lock file keeps two processes from working the same publisher and
// content kinds at once. A lane that finds its lock held skips the pass and
// tries again on the next interval.
//
// Update runs a single subject on demand, which is how the CLI re-resolves an
// item after an operator changes the catalog or the graph.
package workflow
