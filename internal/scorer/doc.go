// Package scorer rates candidates proposed by the generators.
//
// Every scorer produces one score per candidate, computed independently of
// the other candidates, and returns a trace describing how each score was
// reached. Scores are discrete: a scorer maps its measurement onto a small
// set of configured values (perfect, partial, mismatch) or abstains with
// score.Null, so that the combiner's strong threshold behaves predictably.
//
// The title scorer carries the most logic. It normalizes both titles in
// stages and stops at the first stage that decides the outcome; see
// Title.Compare for the order.
package scorer
