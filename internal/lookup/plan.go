package lookup

import (
	"context"
	"fmt"
	"slices"

	"equiv/internal/model"
	"equiv/internal/services"
)

// Reader loads entries by ID. ok is false when the entry does not exist.
type Reader interface {
	Entry(ctx context.Context, id int64) (Entry, bool, error)
}

// Change is one entry a plan wants written. Created entries are inserted;
// others are updated only if their stored version still equals Version.
type Change struct {
	Entry   Entry
	Created bool
}

// Plan is a copy-on-write view over a Reader. Edits stay in the plan until a
// store applies its Changes.
type Plan struct {
	reader   Reader
	original map[int64]Entry
	working  map[int64]Entry
	created  map[int64]bool
}

func newPlan(reader Reader) *Plan {
	return &Plan{
		reader:   reader,
		original: make(map[int64]Entry),
		working:  make(map[int64]Entry),
		created:  make(map[int64]bool),
	}
}

func (p *Plan) load(ctx context.Context, id int64) (Entry, bool, error) {
	if e, ok := p.working[id]; ok {
		return e, true, nil
	}
	e, ok, err := p.reader.Entry(ctx, id)
	if err != nil {
		return Entry{}, false, fmt.Errorf("load entry %d: %w", id, err)
	}
	if !ok {
		return Entry{}, false, nil
	}
	p.original[id] = e
	p.working[id] = e
	return e, true, nil
}

func (p *Plan) ensure(ctx context.Context, ref model.Ref) (Entry, error) {
	if ref.ID == 0 {
		return Entry{}, services.Wrap(services.ErrValidation, "lookup", "ensure", fmt.Sprintf("reference %q has no id", ref.URI), nil)
	}
	e, ok, err := p.load(ctx, ref.ID)
	if err != nil || ok {
		return e, err
	}
	e = Entry{ID: ref.ID, URI: ref.URI, Publisher: ref.Publisher, Active: true}
	p.working[ref.ID] = e
	p.created[ref.ID] = true
	return e, nil
}

func (p *Plan) put(e Entry) {
	p.working[e.ID] = e
}

// Entry returns the planned state of id.
func (p *Plan) Entry(id int64) (Entry, bool) {
	e, ok := p.working[id]
	return e, ok
}

// Changes lists the entries whose state differs from what was read, ordered
// by ID.
func (p *Plan) Changes() []Change {
	var out []Change
	for id, e := range p.working {
		if p.created[id] {
			out = append(out, Change{Entry: e, Created: true})
			continue
		}
		if !e.sameState(p.original[id]) {
			out = append(out, Change{Entry: e})
		}
	}
	slices.SortFunc(out, func(a, b Change) int {
		switch {
		case a.Entry.ID < b.Entry.ID:
			return -1
		case a.Entry.ID > b.Entry.ID:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Empty reports whether applying the plan would write nothing.
func (p *Plan) Empty() bool { return len(p.Changes()) == 0 }

// PlanEnsure registers a node for ref, updating kind and active state.
func PlanEnsure(ctx context.Context, r Reader, ref model.Ref, kind string, active bool) (*Plan, error) {
	p := newPlan(r)
	e, err := p.ensure(ctx, ref)
	if err != nil {
		return nil, err
	}
	e.URI, e.Publisher, e.Kind, e.Active = ref.URI, ref.Publisher, kind, active
	p.put(e)
	return p, nil
}

// PlanDirect overwrites subject's direct edges with strong, minus self and
// minus the subject's blacklist, and recomputes every affected closure.
func PlanDirect(ctx context.Context, r Reader, subject model.Ref, strong []model.Ref) (*Plan, error) {
	p := newPlan(r)
	s, err := p.ensure(ctx, subject)
	if err != nil {
		return nil, err
	}

	var next RefSet
	for _, ref := range strong {
		if ref.ID == 0 || ref.ID == s.ID || s.Blacklist.Has(ref.ID) {
			continue
		}
		next = next.With(ref)
	}
	added := next.Minus(s.Direct)
	removed := s.Direct.Minus(next)
	if len(added) == 0 && len(removed) == 0 {
		return p, nil
	}

	seeds := append([]int64{s.ID}, added.IDs()...)
	seeds = append(seeds, removed.IDs()...)
	for _, ref := range added {
		if _, err := p.ensure(ctx, ref); err != nil {
			return nil, err
		}
	}
	affected, err := p.components(ctx, seeds)
	if err != nil {
		return nil, err
	}

	s.Direct = next
	p.put(s)
	for _, ref := range added {
		t, _, err := p.load(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		t.Inbound = t.Inbound.With(s.Ref())
		p.put(t)
	}
	for _, ref := range removed {
		t, ok, err := p.load(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		t.Inbound = t.Inbound.Without(s.ID)
		p.put(t)
	}

	if err := p.rebuild(ctx, affected); err != nil {
		return nil, err
	}
	return p, nil
}

// PlanExplicit adds or removes an operator edge between a and b.
func PlanExplicit(ctx context.Context, r Reader, a, b model.Ref, add bool) (*Plan, error) {
	p, ea, eb, affected, err := planPair(ctx, r, a, b)
	if err != nil {
		return nil, err
	}
	if add {
		if ea.Blacklist.Has(eb.ID) || eb.Blacklist.Has(ea.ID) {
			return nil, fmt.Errorf("%w: %s and %s", ErrBlacklisted, ea.URI, eb.URI)
		}
		ea.Explicit = ea.Explicit.With(eb.Ref())
		eb.Explicit = eb.Explicit.With(ea.Ref())
	} else {
		ea.Explicit = ea.Explicit.Without(eb.ID)
		eb.Explicit = eb.Explicit.Without(ea.ID)
	}
	p.put(ea)
	p.put(eb)
	if err := p.rebuild(ctx, affected); err != nil {
		return nil, err
	}
	return p, nil
}

// PlanBlacklist adds or removes a forbidden edge between a and b. Adding also
// retracts any direct edge between them in both directions.
func PlanBlacklist(ctx context.Context, r Reader, a, b model.Ref, add bool) (*Plan, error) {
	p, ea, eb, affected, err := planPair(ctx, r, a, b)
	if err != nil {
		return nil, err
	}
	if add {
		ea.Blacklist = ea.Blacklist.With(eb.Ref())
		eb.Blacklist = eb.Blacklist.With(ea.Ref())
		ea.Direct = ea.Direct.Without(eb.ID)
		ea.Inbound = ea.Inbound.Without(eb.ID)
		eb.Direct = eb.Direct.Without(ea.ID)
		eb.Inbound = eb.Inbound.Without(ea.ID)
	} else {
		ea.Blacklist = ea.Blacklist.Without(eb.ID)
		eb.Blacklist = eb.Blacklist.Without(ea.ID)
	}
	p.put(ea)
	p.put(eb)
	if err := p.rebuild(ctx, affected); err != nil {
		return nil, err
	}
	return p, nil
}

func planPair(ctx context.Context, r Reader, a, b model.Ref) (*Plan, Entry, Entry, []int64, error) {
	if a.ID != 0 && a.ID == b.ID {
		return nil, Entry{}, Entry{}, nil, fmt.Errorf("%w: %s", ErrSelfEdge, a.URI)
	}
	p := newPlan(r)
	ea, err := p.ensure(ctx, a)
	if err != nil {
		return nil, Entry{}, Entry{}, nil, err
	}
	eb, err := p.ensure(ctx, b)
	if err != nil {
		return nil, Entry{}, Entry{}, nil, err
	}
	affected, err := p.components(ctx, []int64{ea.ID, eb.ID})
	if err != nil {
		return nil, Entry{}, Entry{}, nil, err
	}
	return p, ea, eb, affected, nil
}

// components returns the union of the connected components containing seeds,
// as the graph currently stands in the plan.
func (p *Plan) components(ctx context.Context, seeds []int64) ([]int64, error) {
	seen := make(map[int64]bool)
	var out []int64
	for _, seed := range seeds {
		if seen[seed] {
			continue
		}
		members, err := p.component(ctx, seed)
		if err != nil {
			return nil, err
		}
		for _, id := range members {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	slices.Sort(out)
	return out, nil
}

// component walks direct, inbound and explicit edges from start. An edge is
// never traversed when either end blacklists the other.
func (p *Plan) component(ctx context.Context, start int64) ([]int64, error) {
	if _, ok, err := p.load(ctx, start); err != nil || !ok {
		return nil, err
	}
	visited := map[int64]bool{start: true}
	queue := []int64{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		e, _, err := p.load(ctx, id)
		if err != nil {
			return nil, err
		}
		for _, next := range e.adjacent() {
			if visited[next.ID] || e.Blacklist.Has(next.ID) {
				continue
			}
			n, ok, err := p.load(ctx, next.ID)
			if err != nil {
				return nil, err
			}
			if !ok || n.Blacklist.Has(e.ID) {
				continue
			}
			visited[next.ID] = true
			queue = append(queue, next.ID)
		}
	}
	out := make([]int64, 0, len(visited))
	for id := range visited {
		out = append(out, id)
	}
	slices.Sort(out)
	return out, nil
}

// rebuild recomputes Equivalents for every node of every component touching
// ids.
func (p *Plan) rebuild(ctx context.Context, ids []int64) error {
	done := make(map[int64]bool)
	for _, id := range ids {
		if done[id] {
			continue
		}
		members, err := p.component(ctx, id)
		if err != nil {
			return err
		}
		refs := make([]model.Ref, 0, len(members))
		for _, m := range members {
			e, _, err := p.load(ctx, m)
			if err != nil {
				return err
			}
			refs = append(refs, e.Ref())
		}
		closure := NewRefSet(refs...)
		for _, m := range members {
			e, _, _ := p.load(ctx, m)
			e.Equivalents = closure.Without(e.ID).Minus(e.Blacklist)
			p.put(e)
			done[m] = true
		}
	}
	return nil
}
