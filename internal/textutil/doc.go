// Package textutil provides the text helpers shared by the title and
// description scorers.
//
// The primary use cases are:
//   - Folding case and stripping accents before titles are compared
//   - Extracting capitalised and significant word sets from descriptions
//   - Measuring edit distance between normalised titles
//   - Sanitizing names for safe filesystem use
//
// Word sets are folded with Unicode case folding after accent removal, so
// "Amélie" and "AMELIE" compare equal.
package textutil
