// Package lookup maintains the equivalence graph.
//
// Every tracked identifier has one Entry holding five edge sets: Direct edges
// written by its own pipeline runs, Inbound edges mirroring other nodes'
// Direct sets, operator Explicit and Blacklist edges kept on both ends, and
// the materialised Equivalents closure. The closure is the connected
// component over direct, inbound and explicit edges, never crossing a
// blacklisted pair, minus the node itself and its blacklist, so it is
// symmetric by construction.
//
// Mutations are planned on a copy-on-write Plan and written by Store.Apply
// with a per-entry version check, so concurrent runs touching the same node
// retry instead of losing each other's reverse-edge bookkeeping.
package lookup
