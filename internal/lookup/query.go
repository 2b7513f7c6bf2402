package lookup

import (
	"context"
	"slices"

	"equiv/internal/model"
)

// EdgeClass names how a node relates to another.
type EdgeClass string

const (
	EdgeDirect      EdgeClass = "direct"
	EdgeInbound     EdgeClass = "inbound"
	EdgeExplicit    EdgeClass = "explicit"
	EdgeBlacklisted EdgeClass = "blacklisted"
	EdgeEquivalent  EdgeClass = "equivalent"
)

// Node is one entry in a neighbourhood, annotated relative to the subject.
type Node struct {
	Ref     model.Ref   `json:"ref"`
	Kind    string      `json:"kind,omitempty"`
	Active  bool        `json:"active"`
	Classes []EdgeClass `json:"classes,omitempty"`
	// Edges counts distinct linked entries of any class.
	Edges int `json:"edges"`
}

// Edge is a stored edge between two nodes of the neighbourhood.
type Edge struct {
	From  int64     `json:"from"`
	To    int64     `json:"to"`
	Class EdgeClass `json:"class"`
}

// Graph is a read-only view of the entries around a subject.
type Graph struct {
	Subject Node   `json:"subject"`
	Nodes   []Node `json:"nodes"`
	Edges   []Edge `json:"edges"`
}

// QueryService answers operator graph queries.
type QueryService struct {
	store *Store
}

// NewQueryService wraps store.
func NewQueryService(store *Store) *QueryService {
	return &QueryService{store: store}
}

// Neighbourhood walks the subject's component and every entry linked to it
// by any edge class. Nodes with fewer than minEdges links are left out; the
// subject is always present.
func (q *QueryService) Neighbourhood(ctx context.Context, key string, minEdges int) (Graph, error) {
	subject, err := q.store.Resolve(ctx, key)
	if err != nil {
		return Graph{}, err
	}

	entries := map[int64]Entry{subject.ID: subject}
	queue := []int64{subject.ID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		e := entries[id]
		expand := id == subject.ID || subject.Equivalents.Has(id)
		if !expand {
			continue
		}
		for _, ref := range linked(e) {
			if _, ok := entries[ref.ID]; ok {
				continue
			}
			n, ok, err := q.store.Entry(ctx, ref.ID)
			if err != nil {
				return Graph{}, err
			}
			if !ok {
				continue
			}
			entries[ref.ID] = n
			queue = append(queue, ref.ID)
		}
	}

	graph := Graph{Subject: nodeFor(subject, subject)}
	included := map[int64]bool{subject.ID: true}
	ids := make([]int64, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if id == subject.ID {
			continue
		}
		node := nodeFor(entries[id], subject)
		if node.Edges < minEdges {
			continue
		}
		included[id] = true
		graph.Nodes = append(graph.Nodes, node)
	}

	for _, id := range ids {
		if !included[id] {
			continue
		}
		e := entries[id]
		for _, ref := range e.Direct {
			if included[ref.ID] {
				graph.Edges = append(graph.Edges, Edge{From: id, To: ref.ID, Class: EdgeDirect})
			}
		}
		for _, ref := range e.Explicit {
			if included[ref.ID] && id < ref.ID {
				graph.Edges = append(graph.Edges, Edge{From: id, To: ref.ID, Class: EdgeExplicit})
			}
		}
		for _, ref := range e.Blacklist {
			if included[ref.ID] && id < ref.ID {
				graph.Edges = append(graph.Edges, Edge{From: id, To: ref.ID, Class: EdgeBlacklisted})
			}
		}
	}
	return graph, nil
}

func linked(e Entry) RefSet {
	out := e.adjacent()
	for _, r := range e.Blacklist {
		out = out.With(r)
	}
	return out
}

func nodeFor(e, subject Entry) Node {
	n := Node{Ref: e.Ref(), Kind: e.Kind, Active: e.Active, Edges: len(linked(e))}
	if e.ID == subject.ID {
		return n
	}
	if subject.Direct.Has(e.ID) {
		n.Classes = append(n.Classes, EdgeDirect)
	}
	if subject.Inbound.Has(e.ID) {
		n.Classes = append(n.Classes, EdgeInbound)
	}
	if subject.Explicit.Has(e.ID) {
		n.Classes = append(n.Classes, EdgeExplicit)
	}
	if subject.Blacklist.Has(e.ID) {
		n.Classes = append(n.Classes, EdgeBlacklisted)
	}
	if subject.Equivalents.Has(e.ID) {
		n.Classes = append(n.Classes, EdgeEquivalent)
	}
	return n
}
