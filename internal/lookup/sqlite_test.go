package lookup_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"testing"

	"equiv/internal/lookup"
	"equiv/internal/model"
	"equiv/internal/services"
	"equiv/internal/testsupport"
)

func openGraph(t *testing.T) *lookup.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return lookup.NewStore(testsupport.MustOpenStore(t, cfg))
}

func item(id int64, uri, publisher string) model.Ref {
	return model.Ref{ID: id, URI: uri, Publisher: publisher}
}

func assertDirect(t *testing.T, g *lookup.Store, subject model.Ref, strong ...model.Ref) int {
	t.Helper()
	n, err := g.Update(context.Background(), 3, func(ctx context.Context, tx *sql.Tx) (*lookup.Plan, error) {
		return lookup.PlanDirect(ctx, g.Reader(tx), subject, strong)
	})
	if err != nil {
		t.Fatalf("direct update for %s: %v", subject.URI, err)
	}
	return n
}

func TestStoreRoundTripsEdges(t *testing.T) {
	g := openGraph(t)
	ctx := context.Background()
	a, b := item(1, "bbc:a", "bbc"), item(2, "pa:b", "pa")

	if n := assertDirect(t, g, a, b); n != 2 {
		t.Fatalf("wrote %d entries, want 2", n)
	}
	ea, ok, err := g.Entry(ctx, 1)
	if err != nil || !ok {
		t.Fatalf("Entry(1) = %v, %v", ok, err)
	}
	if !ea.Direct.Has(2) || !ea.Equivalents.Has(2) || ea.Version != 1 {
		t.Fatalf("unexpected entry %+v", ea)
	}
	eb, ok, err := g.EntryByURI(ctx, "pa:b")
	if err != nil || !ok {
		t.Fatalf("EntryByURI = %v, %v", ok, err)
	}
	if !eb.Inbound.Has(1) || !eb.Equivalents.Has(1) {
		t.Fatalf("unexpected target %+v", eb)
	}

	if n := assertDirect(t, g, a, b); n != 0 {
		t.Fatalf("repeat run wrote %d entries", n)
	}
	again, _, _ := g.Entry(ctx, 1)
	if again.Version != ea.Version {
		t.Fatalf("version moved from %d to %d on a no-op run", ea.Version, again.Version)
	}
}

func TestApplyDetectsVersionConflict(t *testing.T) {
	g := openGraph(t)
	ctx := context.Background()
	a, b, c := item(1, "a", "p1"), item(2, "b", "p2"), item(3, "c", "p3")
	assertDirect(t, g, a, b)

	db := g.Database()
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		plan, err := lookup.PlanDirect(ctx, g.Reader(tx), a, []model.Ref{c})
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE lookup_entries SET version = version + 1 WHERE id = 1`); err != nil {
			return err
		}
		_, err = g.Apply(ctx, tx, plan)
		return err
	})
	if !errors.Is(err, lookup.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
	e, _, _ := g.Entry(ctx, 1)
	if e.Direct.Has(3) {
		t.Fatal("conflicting write was committed")
	}
}

func TestRetryConflictsStopsOnOtherErrors(t *testing.T) {
	calls := 0
	err := lookup.RetryConflicts(context.Background(), 4, func() error {
		calls++
		if calls < 3 {
			return lookup.ErrVersionConflict
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("RetryConflicts = %v after %d calls", err, calls)
	}

	boom := errors.New("boom")
	calls = 0
	err = lookup.RetryConflicts(context.Background(), 4, func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("non-conflict error retried: %v after %d calls", err, calls)
	}
}

func TestManualServiceEdges(t *testing.T) {
	g := openGraph(t)
	ctx := context.Background()
	a, b, c := item(1, "bbc:a", "bbc"), item(2, "pa:b", "pa"), item(3, "bt:c", "bt")
	assertDirect(t, g, a, b)
	assertDirect(t, g, c)

	manual := lookup.NewManualService(g, 3, nil)
	if err := manual.AddExplicit(ctx, "bbc:a", "3"); err != nil {
		t.Fatalf("AddExplicit: %v", err)
	}
	ec, _, _ := g.Entry(ctx, 3)
	if !ec.Explicit.Has(1) || !ec.Equivalents.Has(2) {
		t.Fatalf("explicit edge not reflected: %+v", ec)
	}

	if err := manual.AddBlacklist(ctx, "pa:b", "bbc:a"); err != nil {
		t.Fatalf("AddBlacklist: %v", err)
	}
	ea, _, _ := g.Entry(ctx, 1)
	if ea.Direct.Has(2) || ea.Equivalents.Has(2) {
		t.Fatalf("blacklist did not retract: %+v", ea)
	}

	// The next automated run still cannot assert the blacklisted edge.
	assertDirect(t, g, a, b)
	ea, _, _ = g.Entry(ctx, 1)
	if ea.Direct.Has(2) {
		t.Fatal("automated run overrode blacklist")
	}

	if err := manual.RemoveBlacklist(ctx, "1", "2"); err != nil {
		t.Fatalf("RemoveBlacklist: %v", err)
	}
	if err := manual.RemoveExplicit(ctx, "1", "3"); err != nil {
		t.Fatalf("RemoveExplicit: %v", err)
	}
	ec, _, _ = g.Entry(ctx, 3)
	if len(ec.Equivalents) != 0 {
		t.Fatalf("entry 3 still linked: %v", ec.Equivalents.IDs())
	}

	if err := manual.AddExplicit(ctx, "bbc:a", "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := manual.AddExplicit(ctx, "1", "bbc:a"); !errors.Is(err, lookup.ErrSelfEdge) {
		t.Fatalf("expected self edge error, got %v", err)
	}
}

func TestConcurrentManualEdgesSerialisePerNode(t *testing.T) {
	g := openGraph(t)
	ctx := context.Background()
	hub := item(100, "pa:hub", "pa")
	assertDirect(t, g, hub)

	const nodes = 6
	for i := 1; i <= nodes; i++ {
		assertDirect(t, g, item(int64(i), fmt.Sprintf("bbc:%d", i), "bbc"))
	}

	manual := lookup.NewManualService(g, 5, nil)
	errs := make([]error, nodes)
	var wg sync.WaitGroup
	for i := range nodes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = manual.AddExplicit(ctx, strconv.Itoa(i+1), "pa:hub")
		}()
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("AddExplicit %d: %v", i+1, err)
		}
	}

	eh, _, err := g.Entry(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(eh.Explicit) != nodes || len(eh.Equivalents) != nodes {
		t.Fatalf("hub explicit %v equivalents %v", eh.Explicit.IDs(), eh.Equivalents.IDs())
	}
	for i := int64(1); i <= nodes; i++ {
		e, _, err := g.Entry(ctx, i)
		if err != nil {
			t.Fatal(err)
		}
		if !e.Explicit.Has(100) || !e.Equivalents.Has(100) || len(e.Equivalents) != nodes {
			t.Fatalf("node %d explicit %v equivalents %v", i, e.Explicit.IDs(), e.Equivalents.IDs())
		}
	}
}

func TestNeighbourhoodAnnotatesEdgeClasses(t *testing.T) {
	g := openGraph(t)
	ctx := context.Background()
	a, b, c, d := item(1, "a", "p1"), item(2, "b", "p2"), item(3, "c", "p3"), item(4, "d", "p4")
	assertDirect(t, g, a, b)
	assertDirect(t, g, c, a)
	assertDirect(t, g, d)
	manual := lookup.NewManualService(g, 3, nil)
	if err := manual.AddBlacklist(ctx, "a", "d"); err != nil {
		t.Fatal(err)
	}

	graph, err := lookup.NewQueryService(g).Neighbourhood(ctx, "a", 0)
	if err != nil {
		t.Fatalf("Neighbourhood: %v", err)
	}
	if graph.Subject.Ref.ID != 1 {
		t.Fatalf("subject = %+v", graph.Subject)
	}
	classes := map[int64][]lookup.EdgeClass{}
	for _, n := range graph.Nodes {
		classes[n.Ref.ID] = n.Classes
	}
	want := map[int64][]lookup.EdgeClass{
		2: {lookup.EdgeDirect, lookup.EdgeEquivalent},
		3: {lookup.EdgeInbound, lookup.EdgeEquivalent},
		4: {lookup.EdgeBlacklisted},
	}
	for id, w := range want {
		if !slices.Equal(classes[id], w) {
			t.Fatalf("node %d classes = %v, want %v", id, classes[id], w)
		}
	}

	filtered, err := lookup.NewQueryService(g).Neighbourhood(ctx, "1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered.Nodes) != 0 {
		t.Fatalf("expected nodes with fewer than two links to be dropped, got %+v", filtered.Nodes)
	}

	if _, err := lookup.NewQueryService(g).Neighbourhood(ctx, "nope", 0); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
