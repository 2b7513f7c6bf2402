// Package persist commits a pipeline run: the Result row and the subject's
// direct-edge overwrite, with every affected closure, in one SQLite
// transaction. Version conflicts retry the whole transaction.
package persist
