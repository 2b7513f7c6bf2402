package lookup

import "errors"

var (
	// ErrVersionConflict reports that an entry changed between read and write.
	// The whole transaction should be retried.
	ErrVersionConflict = errors.New("lookup entry version conflict")
	// ErrSelfEdge rejects an edge from a node to itself.
	ErrSelfEdge = errors.New("edge endpoints are the same entry")
	// ErrBlacklisted rejects an explicit edge between blacklisted entries.
	ErrBlacklisted = errors.New("edge is blacklisted")
)
