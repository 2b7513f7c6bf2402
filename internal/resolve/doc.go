// Package resolve defines the collaborator contracts the equivalence pipeline
// consumes: schedule, channel and content resolvers.
//
// Bounded decorates any implementation with a per-lookup deadline and a
// shared rate limit. A lookup that runs out of time reports
// services.ErrTimeout so callers can treat it as an abstention.
package resolve
