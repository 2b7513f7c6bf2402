package results_test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"equiv/internal/lookup"
	"equiv/internal/model"
	"equiv/internal/results"
	"equiv/internal/score"
	"equiv/internal/services"
	"equiv/internal/store"
	"equiv/internal/testsupport"
	"equiv/internal/trace"
)

func sampleResult(uri string, id int64, kind string) results.Result {
	return results.Result{
		Subject: model.Ref{ID: id, URI: uri, Publisher: "bbc"},
		Title:   "News at Ten",
		Kind:    kind,
		Tables: []results.Table{{
			Name:    "combined",
			Sources: []string{"broadcast", "title"},
			Rows: []results.Row{
				{
					Candidate: model.Ref{ID: 9, URI: "pa:1", Publisher: "pa"},
					Scores:    []score.Score{score.Real(1), score.Real(2)},
					Combined:  score.Real(3),
					Strong:    true,
				},
				{
					Candidate: model.Ref{ID: 10, URI: "pa:2", Publisher: "pa"},
					Scores:    []score.Score{score.Null, score.NaN},
					Combined:  score.Null,
				},
			},
		}},
		Trace: trace.New("pipeline").Line("generated 2 candidates").Node(),
	}
}

func setup(t *testing.T, retention int) (*store.Store, *results.Repository) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithRetention(retention))
	db := testsupport.MustOpenStore(t, cfg)
	return db, results.NewRepository(db, cfg.Results.Retention)
}

func insert(t *testing.T, db *store.Store, repo *results.Repository, res results.Result, at time.Time) int64 {
	t.Helper()
	var id int64
	err := db.WithTx(context.Background(), func(tx *sql.Tx) error {
		var err error
		id, err = repo.Insert(context.Background(), tx, res, at)
		return err
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return id
}

func register(t *testing.T, db *store.Store, ref model.Ref) {
	t.Helper()
	graph := lookup.NewStore(db)
	err := db.WithTx(context.Background(), func(tx *sql.Tx) error {
		return graph.Ensure(context.Background(), tx, ref, "item", true)
	})
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
}

func TestLatestAndRetention(t *testing.T) {
	db, repo := setup(t, 2)
	ctx := context.Background()
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	res := sampleResult("bbc:1", 1, "item")

	for i := 0; i < 3; i++ {
		insert(t, db, repo, res, at.Add(time.Duration(i)*time.Minute))
	}
	history, err := repo.History(ctx, "bbc:1", 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("retention kept %d runs, want 2", len(history))
	}
	if !history[0].RecordedAt.Equal(at.Add(2 * time.Minute)) {
		t.Fatalf("newest first violated: %v", history[0].RecordedAt)
	}
	if !bytes.Equal(history[0].Body, history[1].Body) {
		t.Fatal("identical runs produced different bodies")
	}

	latest, err := repo.LatestByID(ctx, 1)
	if err != nil {
		t.Fatalf("LatestByID: %v", err)
	}
	if latest.ID != history[0].ID {
		t.Fatalf("LatestByID = %d, want %d", latest.ID, history[0].ID)
	}
	row := latest.Result.Tables[0].Rows[1]
	if !row.Scores[0].IsNull() || !row.Scores[1].IsNaN() || !row.Combined.IsNull() {
		t.Fatalf("score kinds not preserved: %+v", row)
	}
	if got := latest.Result.Strong(); len(got) != 1 || got[0].URI != "pa:1" {
		t.Fatalf("Strong = %v", got)
	}
	if got := latest.Result.Tables[0].Rows[0].Score(latest.Result.Tables[0].Sources, "title"); got != score.Real(2) {
		t.Fatalf("Row.Score(title) = %s", got)
	}
}

func TestMissingSubjectVersusNoResult(t *testing.T) {
	db, repo := setup(t, 5)
	ctx := context.Background()
	register(t, db, model.Ref{ID: 7, URI: "bbc:known", Publisher: "bbc"})

	if _, err := repo.Latest(ctx, "bbc:known"); !errors.Is(err, results.ErrNoResult) {
		t.Fatalf("known subject: expected ErrNoResult, got %v", err)
	}
	if _, err := repo.LatestByID(ctx, 7); !errors.Is(err, results.ErrNoResult) {
		t.Fatalf("known id: expected ErrNoResult, got %v", err)
	}
	_, err := repo.Latest(ctx, "bbc:unknown")
	if !errors.Is(err, services.ErrNotFound) || errors.Is(err, results.ErrNoResult) {
		t.Fatalf("unknown subject: expected ErrNotFound, got %v", err)
	}
}

func TestRecentFiltersByKind(t *testing.T) {
	db, repo := setup(t, 5)
	ctx := context.Background()
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	insert(t, db, repo, sampleResult("bbc:item", 1, "item"), at)
	insert(t, db, repo, sampleResult("bbc:brand", 2, "brand"), at.Add(time.Minute))
	insert(t, db, repo, sampleResult("bbc:series", 3, "series"), at.Add(2*time.Minute))

	containers, err := repo.Recent(ctx, []string{"brand", "series"}, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(containers) != 2 || containers[0].Result.Subject.URI != "bbc:series" {
		t.Fatalf("unexpected containers %+v", containers)
	}
	all, err := repo.Recent(ctx, nil, 10)
	if err != nil || len(all) != 3 {
		t.Fatalf("Recent(all) = %d, %v", len(all), err)
	}
}
