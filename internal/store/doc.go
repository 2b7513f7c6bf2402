// Package store opens the SQLite database shared by the catalog, the lookup
// graph and the result repository.
//
// It applies the WAL and busy-timeout pragmas to every pooled connection,
// creates the embedded schema on first use, refuses databases written by a
// different schema version, and offers WithTx so callers can make several
// repositories' writes atomic. Busy errors are retried with exponential
// backoff.
package store
