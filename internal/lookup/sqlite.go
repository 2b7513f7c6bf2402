package lookup

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"equiv/internal/model"
	"equiv/internal/services"
	"equiv/internal/store"
)

const entryColumns = `id, uri, publisher, kind, active, version, direct, inbound, explicit, blacklist, equivalents, updated_at`

// Store persists lookup entries in SQLite.
type Store struct {
	db  *store.Store
	now func() time.Time
}

// NewStore wraps an open database.
func NewStore(db *store.Store) *Store {
	return &Store{db: db, now: time.Now}
}

// Database returns the underlying handle so callers can share transactions.
func (s *Store) Database() *store.Store { return s.db }

type querierReader struct {
	q store.Querier
}

func (r querierReader) Entry(ctx context.Context, id int64) (Entry, bool, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM lookup_entries WHERE id = ?`, id)
	return scanEntry(row)
}

// Reader returns a Reader that reads through q, typically a transaction.
func (s *Store) Reader(q store.Querier) Reader {
	return querierReader{q: q}
}

// Entry reads one entry outside any transaction.
func (s *Store) Entry(ctx context.Context, id int64) (Entry, bool, error) {
	return querierReader{q: s.db.DB()}.Entry(ctx, id)
}

// EntryByURI reads one entry by canonical URI.
func (s *Store) EntryByURI(ctx context.Context, uri string) (Entry, bool, error) {
	row := s.db.DB().QueryRowContext(ctx, `SELECT `+entryColumns+` FROM lookup_entries WHERE uri = ?`, uri)
	return scanEntry(row)
}

// Resolve finds an entry by numeric ID or canonical URI.
func (s *Store) Resolve(ctx context.Context, key string) (Entry, error) {
	return resolveKey(ctx, s.db.DB(), key)
}

func resolveKey(ctx context.Context, q store.Querier, key string) (Entry, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Entry{}, services.Wrap(services.ErrValidation, "lookup", "resolve", "empty identifier", nil)
	}
	var (
		e   Entry
		ok  bool
		err error
	)
	if id, parseErr := strconv.ParseInt(key, 10, 64); parseErr == nil {
		e, ok, err = querierReader{q: q}.Entry(ctx, id)
	} else {
		e, ok, err = scanEntry(q.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM lookup_entries WHERE uri = ?`, key))
	}
	if err != nil {
		return Entry{}, err
	}
	if !ok {
		return Entry{}, services.Wrap(services.ErrNotFound, "lookup", "resolve", key, nil)
	}
	return e, nil
}

// Apply writes the plan's changes through tx. Updates are conditional on the
// version that was read; a mismatch returns ErrVersionConflict.
func (s *Store) Apply(ctx context.Context, tx *sql.Tx, plan *Plan) (int, error) {
	changes := plan.Changes()
	now := s.now().UTC().Format(time.RFC3339Nano)
	for _, ch := range changes {
		e := ch.Entry
		sets, err := encodeSets(e)
		if err != nil {
			return 0, err
		}
		if ch.Created {
			_, err := tx.ExecContext(ctx, `INSERT INTO lookup_entries (`+entryColumns+`)
				VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?, ?, ?, ?)`,
				e.ID, e.URI, e.Publisher, e.Kind, boolInt(e.Active),
				sets[0], sets[1], sets[2], sets[3], sets[4], now)
			if err != nil {
				if isConstraint(err) {
					return 0, fmt.Errorf("%w: entry %d created concurrently", ErrVersionConflict, e.ID)
				}
				return 0, fmt.Errorf("insert entry %d: %w", e.ID, err)
			}
			continue
		}
		res, err := tx.ExecContext(ctx, `UPDATE lookup_entries
			SET uri = ?, publisher = ?, kind = ?, active = ?, version = version + 1,
			    direct = ?, inbound = ?, explicit = ?, blacklist = ?, equivalents = ?, updated_at = ?
			WHERE id = ? AND version = ?`,
			e.URI, e.Publisher, e.Kind, boolInt(e.Active),
			sets[0], sets[1], sets[2], sets[3], sets[4], now,
			e.ID, e.Version)
		if err != nil {
			return 0, fmt.Errorf("update entry %d: %w", e.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("update entry %d rows: %w", e.ID, err)
		}
		if n == 0 {
			return 0, fmt.Errorf("%w: entry %d at version %d", ErrVersionConflict, e.ID, e.Version)
		}
	}
	return len(changes), nil
}

// Update plans and applies a graph mutation in its own transaction, retrying
// the whole transaction on version conflicts up to attempts times.
func (s *Store) Update(ctx context.Context, attempts int, planFn func(ctx context.Context, tx *sql.Tx) (*Plan, error)) (int, error) {
	var written int
	err := RetryConflicts(ctx, attempts, func() error {
		return s.db.WithTx(ctx, func(tx *sql.Tx) error {
			plan, err := planFn(ctx, tx)
			if err != nil {
				return err
			}
			written, err = s.Apply(ctx, tx, plan)
			return err
		})
	})
	return written, err
}

// RetryConflicts runs fn until it stops returning ErrVersionConflict or the
// attempts are used up.
func RetryConflicts(ctx context.Context, attempts int, fn func() error) error {
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); !errors.Is(err, ErrVersionConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}

// Count returns how many entries exist.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.DB().QueryRowContext(ctx, `SELECT COUNT(1) FROM lookup_entries`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, bool, error) {
	var (
		e       Entry
		active  int
		updated string

		direct, inbound, explicit, black, equivalents string
	)
	err := row.Scan(&e.ID, &e.URI, &e.Publisher, &e.Kind, &active, &e.Version,
		&direct, &inbound, &explicit, &black, &equivalents, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("scan lookup entry: %w", err)
	}
	e.Active = active != 0
	for _, field := range []struct {
		raw  string
		dest *RefSet
	}{
		{direct, &e.Direct},
		{inbound, &e.Inbound},
		{explicit, &e.Explicit},
		{black, &e.Blacklist},
		{equivalents, &e.Equivalents},
	} {
		var refs []model.Ref
		if err := json.Unmarshal([]byte(field.raw), &refs); err != nil {
			return Entry{}, false, fmt.Errorf("decode edges of entry %d: %w", e.ID, err)
		}
		*field.dest = NewRefSet(refs...)
	}
	if ts, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		e.UpdatedAt = ts
	}
	return e, true, nil
}

func encodeSets(e Entry) ([5]string, error) {
	var out [5]string
	for i, set := range []RefSet{e.Direct, e.Inbound, e.Explicit, e.Blacklist, e.Equivalents} {
		if set == nil {
			set = RefSet{}
		}
		data, err := json.Marshal(set)
		if err != nil {
			return out, fmt.Errorf("encode edges of entry %d: %w", e.ID, err)
		}
		out[i] = string(data)
	}
	return out, nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func isConstraint(err error) bool {
	return err != nil && strings.Contains(err.Error(), "constraint")
}

// Ensure registers ref inside tx, updating its kind and active flag.
func (s *Store) Ensure(ctx context.Context, tx *sql.Tx, ref model.Ref, kind string, active bool) error {
	plan, err := PlanEnsure(ctx, s.Reader(tx), ref, kind, active)
	if err != nil {
		return err
	}
	_, err = s.Apply(ctx, tx, plan)
	return err
}
