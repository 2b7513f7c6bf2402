// Package updater runs the equivalence pipeline for one subject.
//
// A run moves through GENERATE, SCORE, FILTER, COMBINE, PERSIST_RESULT and
// UPDATE_GRAPH. A failing stage ends the run before anything is persisted
// and its error is wrapped with the stage name. The two persistence stages
// share one database transaction, so the stored Result and the subject's
// direct edges always change together.
//
// Build assembles an Updater from a configured pipeline. Generator, scorer
// and filter names form closed sets; an unknown name is a configuration
// error reported when the pipeline is built, before any subject runs.
package updater
