// Package catalog is the SQLite-backed reference implementation of the
// resolve contracts. It stores already-normalised content, broadcasts and
// channels loaded from a JSON Document and registers a lookup graph entry
// for every content record it imports.
package catalog
