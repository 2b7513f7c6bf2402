package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"equiv/internal/logging"
	"equiv/internal/lookup"
	"equiv/internal/model"
	"equiv/internal/services"
)

// Document is the normalised catalog exchange format accepted by Import.
// References between records only need URIs; IDs are assigned on import.
type Document struct {
	Channels []model.Channel `json:"channels"`
	Content  []model.Content `json:"content"`
}

// ImportStats summarizes one import.
type ImportStats struct {
	Content    int
	Broadcasts int
	Channels   int
	Inactive   int
}

// DecodeDocument reads a Document and rejects unknown fields.
func DecodeDocument(r io.Reader) (Document, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return Document{}, services.Wrap(services.ErrValidation, "catalog", "decode", "invalid catalog document", err)
	}
	return doc, nil
}

// ImportFile decodes and imports the document at path.
func (c *Catalog) ImportFile(ctx context.Context, graph *lookup.Store, path string) (ImportStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImportStats{}, fmt.Errorf("open catalog document: %w", err)
	}
	defer f.Close()
	doc, err := DecodeDocument(f)
	if err != nil {
		return ImportStats{}, err
	}
	return c.Import(ctx, graph, doc)
}

// Import upserts every record of doc in one transaction and registers a
// lookup entry for each content record. Records marked inactive keep their
// rows and lookup entries; they are only flagged.
func (c *Catalog) Import(ctx context.Context, graph *lookup.Store, doc Document) (ImportStats, error) {
	if err := validateDocument(doc); err != nil {
		return ImportStats{}, err
	}
	var stats ImportStats
	now := time.Now().UTC().Format(time.RFC3339Nano)

	err := c.db.WithTx(ctx, func(tx *sql.Tx) error {
		stats = ImportStats{}
		ids := make(map[string]int64, len(doc.Content))
		publishers := make(map[string]string, len(doc.Content))
		for _, item := range doc.Content {
			id, err := upsertContentRow(ctx, tx, item, now)
			if err != nil {
				return err
			}
			ids[item.URI] = id
			publishers[item.URI] = item.Publisher
		}

		children := deriveChildren(doc.Content)
		for _, item := range doc.Content {
			item = item.Clone()
			item.ID = ids[item.URI]
			for _, child := range children[item.URI] {
				if !slices.ContainsFunc(item.Children, func(r model.Ref) bool { return r.URI == child.URI }) {
					item.Children = append(item.Children, child)
				}
			}
			if err := resolveRefs(ctx, tx, &item, ids, publishers); err != nil {
				return err
			}
			if err := writeContentBody(ctx, tx, item); err != nil {
				return err
			}
			n, err := replaceBroadcasts(ctx, tx, item)
			if err != nil {
				return err
			}
			stats.Broadcasts += n
			if err := graph.Ensure(ctx, tx, item.Ref(), string(item.Kind), item.Active); err != nil {
				return fmt.Errorf("ensure lookup entry %s: %w", item.URI, err)
			}
			stats.Content++
			if !item.Active {
				stats.Inactive++
			}
		}

		for _, ch := range doc.Channels {
			body, err := json.Marshal(ch)
			if err != nil {
				return fmt.Errorf("encode channel %s: %w", ch.URI, err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO channels (uri, publisher, title, body) VALUES (?, ?, ?, ?)
				ON CONFLICT(uri) DO UPDATE SET publisher = excluded.publisher, title = excluded.title, body = excluded.body`,
				ch.URI, ch.Publisher, ch.Title, string(body)); err != nil {
				return fmt.Errorf("upsert channel %s: %w", ch.URI, err)
			}
			stats.Channels++
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, lookup.ErrVersionConflict) {
			return ImportStats{}, services.Wrap(services.ErrTransient, "catalog", "import", "lookup graph changed during import", err)
		}
		return ImportStats{}, services.Wrap(services.ErrPersistence, "catalog", "import", "", err)
	}
	c.logger.Info("catalog imported",
		logging.Int("content", stats.Content),
		logging.Int("broadcasts", stats.Broadcasts),
		logging.Int("channels", stats.Channels),
		logging.Int("inactive", stats.Inactive),
	)
	return stats, nil
}

func validateDocument(doc Document) error {
	var problems []string
	seen := make(map[string]bool, len(doc.Content))
	for i, item := range doc.Content {
		switch {
		case strings.TrimSpace(item.URI) == "":
			problems = append(problems, fmt.Sprintf("content[%d]: uri is required", i))
		case seen[item.URI]:
			problems = append(problems, fmt.Sprintf("content[%d]: duplicate uri %s", i, item.URI))
		}
		seen[item.URI] = true
		if strings.TrimSpace(item.Publisher) == "" {
			problems = append(problems, fmt.Sprintf("content[%d]: publisher is required", i))
		}
		if _, ok := model.ParseKind(string(item.Kind)); !ok {
			problems = append(problems, fmt.Sprintf("content[%d]: unknown kind %q", i, item.Kind))
		}
		for j, b := range item.Broadcasts {
			if b.ChannelURI == "" || !b.End.After(b.Start) {
				problems = append(problems, fmt.Sprintf("content[%d].broadcasts[%d]: channel and a positive slot are required", i, j))
			}
		}
	}
	for i, ch := range doc.Channels {
		if strings.TrimSpace(ch.URI) == "" || strings.TrimSpace(ch.Publisher) == "" {
			problems = append(problems, fmt.Sprintf("channels[%d]: uri and publisher are required", i))
		}
	}
	if len(problems) > 0 {
		return services.Wrap(services.ErrValidation, "catalog", "validate", strings.Join(problems, "; "), nil)
	}
	return nil
}

func upsertContentRow(ctx context.Context, tx *sql.Tx, item model.Content, now string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `INSERT INTO content (uri, publisher, kind, title, title_key, active, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, '{}', ?)
		ON CONFLICT(uri) DO UPDATE SET publisher = excluded.publisher, kind = excluded.kind,
			title = excluded.title, title_key = excluded.title_key, active = excluded.active,
			updated_at = excluded.updated_at
		RETURNING id`,
		item.URI, item.Publisher, string(item.Kind), item.Title, TitleKey(item.Title), boolInt(item.Active), now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert content %s: %w", item.URI, err)
	}
	return id, nil
}

func writeContentBody(ctx context.Context, tx *sql.Tx, item model.Content) error {
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode content %s: %w", item.URI, err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE content SET body = ? WHERE id = ?`, string(body), item.ID); err != nil {
		return fmt.Errorf("write content %s: %w", item.URI, err)
	}
	return nil
}

func replaceBroadcasts(ctx context.Context, tx *sql.Tx, item model.Content) (int, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM broadcasts WHERE content_id = ?`, item.ID); err != nil {
		return 0, fmt.Errorf("clear broadcasts of %s: %w", item.URI, err)
	}
	for _, b := range item.Broadcasts {
		if _, err := tx.ExecContext(ctx, `INSERT INTO broadcasts (content_id, channel_uri, publisher, start_at, end_at, active)
			VALUES (?, ?, ?, ?, ?, ?)`,
			item.ID, b.ChannelURI, item.Publisher, b.Start.Unix(), b.End.Unix(), boolInt(b.Active && item.Active)); err != nil {
			return 0, fmt.Errorf("insert broadcast of %s: %w", item.URI, err)
		}
	}
	return len(item.Broadcasts), nil
}

// deriveChildren maps each container URI to the records in the document that
// name it as their brand or series.
func deriveChildren(items []model.Content) map[string][]model.Ref {
	out := make(map[string][]model.Ref)
	for _, item := range items {
		ref := model.Ref{URI: item.URI, Publisher: item.Publisher}
		if item.Container != nil && item.Container.URI != "" {
			out[item.Container.URI] = append(out[item.Container.URI], ref)
		}
		if item.Series != nil && item.Series.URI != "" && (item.Container == nil || item.Series.URI != item.Container.URI) {
			out[item.Series.URI] = append(out[item.Series.URI], ref)
		}
	}
	return out
}

// resolveRefs fills IDs and publishers on every reference of item, looking
// outside the document when needed. Unknown references keep a zero ID.
func resolveRefs(ctx context.Context, tx *sql.Tx, item *model.Content, ids map[string]int64, publishers map[string]string) error {
	fill := func(ref *model.Ref) error {
		if ref == nil || ref.URI == "" {
			return nil
		}
		if id, ok := ids[ref.URI]; ok {
			ref.ID, ref.Publisher = id, publishers[ref.URI]
			return nil
		}
		var (
			id        int64
			publisher string
		)
		err := tx.QueryRowContext(ctx, `SELECT id, publisher FROM content WHERE uri = ?`, ref.URI).Scan(&id, &publisher)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("resolve reference %s: %w", ref.URI, err)
		}
		ids[ref.URI], publishers[ref.URI] = id, publisher
		ref.ID, ref.Publisher = id, publisher
		return nil
	}
	if err := fill(item.Container); err != nil {
		return err
	}
	if err := fill(item.Series); err != nil {
		return err
	}
	for i := range item.Children {
		if err := fill(&item.Children[i]); err != nil {
			return err
		}
	}
	return nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
