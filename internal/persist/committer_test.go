package persist_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"equiv/internal/lookup"
	"equiv/internal/model"
	"equiv/internal/persist"
	"equiv/internal/results"
	"equiv/internal/score"
	"equiv/internal/services"
	"equiv/internal/store"
	"equiv/internal/testsupport"
)

func strongResult(subject model.Ref, candidates ...model.Ref) results.Result {
	table := results.Table{Name: "combined", Sources: []string{"title"}}
	for _, c := range candidates {
		table.Rows = append(table.Rows, results.Row{
			Candidate: c,
			Scores:    []score.Score{score.Real(2)},
			Combined:  score.Real(2),
			Strong:    true,
		})
	}
	return results.Result{Subject: subject, Title: "Title", Kind: "item", Tables: []results.Table{table}}
}

func setup(t *testing.T) (*store.Store, *persist.Committer) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenStore(t, cfg)
	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return db, persist.NewFromConfig(cfg, db, nil).WithClock(func() time.Time { return fixed })
}

func TestCommitWritesResultAndEdges(t *testing.T) {
	db, committer := setup(t)
	subject := model.Ref{ID: 1, URI: "bbc:1", Publisher: "bbc"}
	target := model.Ref{ID: 2, URI: "pa:2", Publisher: "pa"}

	out, err := committer.Commit(context.Background(), strongResult(subject, target))
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if out.ResultID == 0 || out.EntriesWritten != 2 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	graph := lookup.NewStore(db)
	e, ok, err := graph.Entry(context.Background(), 2)
	if err != nil || !ok || !e.Equivalents.Has(1) {
		t.Fatalf("target entry %+v, %v, %v", e, ok, err)
	}

	again, err := committer.Commit(context.Background(), strongResult(subject, target))
	if err != nil {
		t.Fatalf("second Commit: %v", err)
	}
	if again.EntriesWritten != 0 {
		t.Fatalf("unchanged run wrote %d entries", again.EntriesWritten)
	}
}

func TestCommitCompletesDespiteCancelledContext(t *testing.T) {
	_, committer := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	subject := model.Ref{ID: 1, URI: "bbc:1", Publisher: "bbc"}
	if _, err := committer.Commit(ctx, strongResult(subject)); err != nil {
		t.Fatalf("Commit after cancellation: %v", err)
	}
}

func TestCommitIsAllOrNothing(t *testing.T) {
	db, committer := setup(t)
	ctx := context.Background()
	if _, err := db.Exec(ctx, `DROP TABLE lookup_entries`); err != nil {
		t.Fatal(err)
	}

	subject := model.Ref{ID: 1, URI: "bbc:1", Publisher: "bbc"}
	_, err := committer.Commit(ctx, strongResult(subject, model.Ref{ID: 2, URI: "pa:2", Publisher: "pa"}))
	if !errors.Is(err, services.ErrPersistence) {
		t.Fatalf("expected persistence failure, got %v", err)
	}
	var n int
	if err := db.DB().QueryRowContext(ctx, `SELECT COUNT(1) FROM results`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("result row survived a failed graph write (%d rows)", n)
	}
}

func TestCommitRejectsAnonymousSubject(t *testing.T) {
	_, committer := setup(t)
	_, err := committer.Commit(context.Background(), strongResult(model.Ref{URI: "bbc:1"}))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConcurrentCommitsToSharedTarget(t *testing.T) {
	db, committer := setup(t)
	ctx := context.Background()
	target := model.Ref{ID: 100, URI: "pa:shared", Publisher: "pa"}

	const subjects = 8
	errs := make([]error, subjects)
	var wg sync.WaitGroup
	for i := range subjects {
		wg.Add(1)
		go func() {
			defer wg.Done()
			subject := model.Ref{ID: int64(i + 1), URI: fmt.Sprintf("bbc:%d", i+1), Publisher: "bbc"}
			_, errs[i] = committer.Commit(ctx, strongResult(subject, target))
		}()
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("commit %d: %v", i+1, err)
		}
	}

	graph := lookup.NewStore(db)
	shared, ok, err := graph.Entry(ctx, target.ID)
	if err != nil || !ok {
		t.Fatalf("target entry: %v, %v", ok, err)
	}
	for id := int64(1); id <= subjects; id++ {
		if !shared.Inbound.Has(id) || !shared.Equivalents.Has(id) {
			t.Fatalf("target missing subject %d: inbound %v equivalents %v", id, shared.Inbound.IDs(), shared.Equivalents.IDs())
		}
		e, ok, err := graph.Entry(ctx, id)
		if err != nil || !ok {
			t.Fatalf("subject %d entry: %v, %v", id, ok, err)
		}
		if !e.Direct.Has(target.ID) || len(e.Equivalents) != subjects {
			t.Fatalf("subject %d: direct %v equivalents %v", id, e.Direct.IDs(), e.Equivalents.IDs())
		}
	}

	var n int
	if err := db.DB().QueryRowContext(ctx, `SELECT COUNT(1) FROM results`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != subjects {
		t.Fatalf("results rows = %d, want %d", n, subjects)
	}
}
