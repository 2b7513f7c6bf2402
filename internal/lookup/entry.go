package lookup

import (
	"slices"
	"time"

	"equiv/internal/model"
)

// RefSet is a set of references kept sorted by ID. A zero ID is never stored.
type RefSet []model.Ref

// NewRefSet builds a set from refs, dropping duplicates and zero IDs.
func NewRefSet(refs ...model.Ref) RefSet {
	var out RefSet
	for _, r := range refs {
		out = out.With(r)
	}
	return out
}

func (s RefSet) index(id int64) (int, bool) {
	return slices.BinarySearchFunc(s, id, func(r model.Ref, target int64) int {
		switch {
		case r.ID < target:
			return -1
		case r.ID > target:
			return 1
		default:
			return 0
		}
	})
}

// Has reports whether id is in the set.
func (s RefSet) Has(id int64) bool {
	_, ok := s.index(id)
	return ok
}

// With returns a copy of s including ref.
func (s RefSet) With(ref model.Ref) RefSet {
	if ref.ID == 0 {
		return s
	}
	i, ok := s.index(ref.ID)
	out := slices.Clone(s)
	if ok {
		out[i] = ref
		return out
	}
	return slices.Insert(out, i, ref)
}

// Without returns a copy of s with id removed.
func (s RefSet) Without(id int64) RefSet {
	i, ok := s.index(id)
	if !ok {
		return s
	}
	return slices.Delete(slices.Clone(s), i, i+1)
}

// Minus returns the refs of s that are not in other.
func (s RefSet) Minus(other RefSet) RefSet {
	var out RefSet
	for _, r := range s {
		if !other.Has(r.ID) {
			out = append(out, r)
		}
	}
	return out
}

// Equal compares IDs and URIs.
func (s RefSet) Equal(other RefSet) bool {
	return slices.Equal(s, other)
}

// IDs lists the member IDs in order.
func (s RefSet) IDs() []int64 {
	out := make([]int64, len(s))
	for i, r := range s {
		out[i] = r.ID
	}
	return out
}

// Entry is one node of the lookup graph.
type Entry struct {
	ID        int64
	URI       string
	Publisher string
	Kind      string
	Active    bool
	Version   int64
	UpdatedAt time.Time

	// Direct holds the edges asserted by this node's latest pipeline run.
	Direct RefSet
	// Inbound holds the nodes whose Direct set contains this node.
	Inbound RefSet
	// Explicit holds operator-asserted edges, mirrored on both ends.
	Explicit RefSet
	// Blacklist holds operator-forbidden edges, mirrored on both ends.
	Blacklist RefSet
	// Equivalents is the materialised closure.
	Equivalents RefSet
}

// Ref returns the reference other entries use for this node.
func (e Entry) Ref() model.Ref {
	return model.Ref{ID: e.ID, URI: e.URI, Publisher: e.Publisher}
}

// sameState compares everything except Version and UpdatedAt.
func (e Entry) sameState(other Entry) bool {
	return e.ID == other.ID &&
		e.URI == other.URI &&
		e.Publisher == other.Publisher &&
		e.Kind == other.Kind &&
		e.Active == other.Active &&
		e.Direct.Equal(other.Direct) &&
		e.Inbound.Equal(other.Inbound) &&
		e.Explicit.Equal(other.Explicit) &&
		e.Blacklist.Equal(other.Blacklist) &&
		e.Equivalents.Equal(other.Equivalents)
}

// adjacent lists the nodes reachable in one closure step: direct, inbound and
// explicit edges.
func (e Entry) adjacent() RefSet {
	out := slices.Clone(e.Direct)
	for _, r := range e.Inbound {
		out = out.With(r)
	}
	for _, r := range e.Explicit {
		out = out.With(r)
	}
	return out
}
