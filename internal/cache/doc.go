// Package cache provides a small expiring cache with an injectable clock. It
// fronts container lookups made while scoring titles so repeated lookups for
// the same parent within a short window do not hit the catalog again.
package cache
