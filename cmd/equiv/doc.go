// Package main hosts the equiv CLI entrypoint and command graph.
//
// The Cobra-based command tree runs pipeline passes, re-resolves single
// subjects, inspects stored results and the lookup graph, applies operator
// edge assertions, imports catalog documents and scaffolds configuration.
// Every command works directly against the SQLite database named by the
// configuration; there is no daemon to talk to.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
