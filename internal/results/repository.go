package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"equiv/internal/services"
	"equiv/internal/store"
)

// ErrNoResult reports that the subject is known but has never been run.
var ErrNoResult = errors.New("no result recorded")

// Record is a stored Result with its storage metadata.
type Record struct {
	ID         int64
	RecordedAt time.Time
	Body       []byte
	Result     Result
}

// Repository stores results and keeps the most recent runs per subject.
type Repository struct {
	db        *store.Store
	retention int
}

// NewRepository wraps db. retention below one keeps a single run.
func NewRepository(db *store.Store, retention int) *Repository {
	if retention < 1 {
		retention = 1
	}
	return &Repository{db: db, retention: retention}
}

// Encode renders the stored body of res. Equal results encode to equal bytes.
func Encode(res Result) ([]byte, error) {
	body, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode result for %s: %w", res.Subject.URI, err)
	}
	return body, nil
}

// Insert writes res through q and prunes runs beyond the retention limit.
func (r *Repository) Insert(ctx context.Context, q store.Querier, res Result, at time.Time) (int64, error) {
	body, err := Encode(res)
	if err != nil {
		return 0, err
	}
	out, err := q.ExecContext(ctx, `INSERT INTO results (subject_id, subject_uri, publisher, kind, recorded_at, body)
		VALUES (?, ?, ?, ?, ?, ?)`,
		res.Subject.ID, res.Subject.URI, res.Subject.Publisher, res.Kind, at.UTC().Format(time.RFC3339Nano), string(body))
	if err != nil {
		return 0, fmt.Errorf("insert result for %s: %w", res.Subject.URI, err)
	}
	id, err := out.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("result id: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM results WHERE subject_uri = ? AND id NOT IN (
			SELECT id FROM results WHERE subject_uri = ? ORDER BY recorded_at DESC, id DESC LIMIT ?)`,
		res.Subject.URI, res.Subject.URI, r.retention); err != nil {
		return 0, fmt.Errorf("prune results for %s: %w", res.Subject.URI, err)
	}
	return id, nil
}

// Latest returns the newest result for uri.
func (r *Repository) Latest(ctx context.Context, uri string) (Record, error) {
	records, err := r.History(ctx, uri, 1)
	if err != nil {
		return Record{}, err
	}
	return records[0], nil
}

// LatestByID returns the newest result for the subject with the given ID.
func (r *Repository) LatestByID(ctx context.Context, id int64) (Record, error) {
	records, err := r.query(ctx, `SELECT id, recorded_at, body FROM results WHERE subject_id = ?
		ORDER BY recorded_at DESC, id DESC LIMIT 1`, id)
	if err != nil {
		return Record{}, err
	}
	if len(records) == 0 {
		return Record{}, r.missing(ctx, `SELECT COUNT(1) FROM lookup_entries WHERE id = ?`, id, fmt.Sprintf("id %d", id))
	}
	return records[0], nil
}

// History returns up to limit results for uri, newest first.
func (r *Repository) History(ctx context.Context, uri string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = r.retention
	}
	records, err := r.query(ctx, `SELECT id, recorded_at, body FROM results WHERE subject_uri = ?
		ORDER BY recorded_at DESC, id DESC LIMIT ?`, uri, limit)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, r.missing(ctx, `SELECT COUNT(1) FROM lookup_entries WHERE uri = ?`, uri, uri)
	}
	return records, nil
}

// Recent returns the newest results across subjects of the given kinds.
func (r *Repository) Recent(ctx context.Context, kinds []string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	query := strings.Builder{}
	query.WriteString(`SELECT id, recorded_at, body FROM results`)
	args := make([]any, 0, len(kinds)+1)
	if len(kinds) > 0 {
		query.WriteString(` WHERE kind IN (`)
		for i, k := range kinds {
			if i > 0 {
				query.WriteString(", ")
			}
			query.WriteString("?")
			args = append(args, k)
		}
		query.WriteString(")")
	}
	query.WriteString(` ORDER BY recorded_at DESC, id DESC LIMIT ?`)
	args = append(args, limit)
	return r.query(ctx, query.String(), args...)
}

func (r *Repository) missing(ctx context.Context, countQuery string, key any, label string) error {
	var n int
	if err := r.db.DB().QueryRowContext(ctx, countQuery, key).Scan(&n); err != nil {
		return fmt.Errorf("check subject %s: %w", label, err)
	}
	if n == 0 {
		return services.Wrap(services.ErrNotFound, "results", "lookup", label, nil)
	}
	return fmt.Errorf("%w for %s", ErrNoResult, label)
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec      Record
			recorded string
			body     string
		)
		if err := rows.Scan(&rec.ID, &recorded, &body); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, recorded)
		if err != nil {
			return nil, fmt.Errorf("parse recorded_at of result %d: %w", rec.ID, err)
		}
		rec.RecordedAt = ts
		rec.Body = []byte(body)
		if err := json.Unmarshal(rec.Body, &rec.Result); err != nil {
			return nil, fmt.Errorf("decode result %d: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
