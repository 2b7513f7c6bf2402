// Package score holds the confidence values exchanged between generators,
// scorers and the combiner.
//
// A Score is real, Null (the signal abstained) or NaN (the signal found no
// relationship). Summation treats Null as the identity and NaN as absorbing;
// best-candidate selection ranks real scores numerically, places Null below
// every real score and never selects NaN.
//
// Candidates is the immutable per-source mapping from candidate to Score. It
// is produced through a Builder whose Add accumulates and whose Update
// overrides, matching multi-match accumulation and single-best-match scorers
// respectively.
package score
