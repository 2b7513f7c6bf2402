// Package filter holds the structural rules a scored candidate must pass.
//
// Filters run after scoring and never look at scores. Each returns whether to
// keep the candidate and, when it does not, a short reason that ends up in
// the run trace. Filters compose conjunctively through All.
package filter
