// Package combiner turns the per-source candidate sets of one run into a
// results.Table: a row per surviving candidate holding every source's score,
// the combined score and the strong flag.
package combiner
