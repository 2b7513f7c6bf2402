// Package preflight provides readiness checks for the filesystem paths and
// database the resolver depends on.
//
// These checks run in two contexts:
//   - The workflow manager calls RunAll before starting its pipeline loops.
//     If any check fails, no pipeline starts.
//   - The CLI "equiv status" command renders the same results as a table.
package preflight
