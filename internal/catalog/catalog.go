package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"equiv/internal/logging"
	"equiv/internal/model"
	"equiv/internal/resolve"
	"equiv/internal/services"
	"equiv/internal/store"
)

const searchLimit = 50

// Catalog serves content, channel and schedule lookups from the local
// database populated by Import.
type Catalog struct {
	db     *store.Store
	logger *slog.Logger
}

// New wraps an open database.
func New(db *store.Store, logger *slog.Logger) *Catalog {
	return &Catalog{db: db, logger: logging.NewComponentLogger(logger, "catalog")}
}

func (c *Catalog) Content(ctx context.Context, uri string) (model.Content, error) {
	return c.loadContent(ctx, `SELECT body FROM content WHERE uri = ?`, uri)
}

func (c *Catalog) ContentByID(ctx context.Context, id int64) (model.Content, error) {
	return c.loadContent(ctx, `SELECT body FROM content WHERE id = ?`, id)
}

func (c *Catalog) loadContent(ctx context.Context, query string, key any) (model.Content, error) {
	var body string
	err := c.db.DB().QueryRowContext(ctx, query, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Content{}, services.Wrap(services.ErrNotFound, "catalog", "content", fmt.Sprint(key), nil)
	}
	if err != nil {
		return model.Content{}, fmt.Errorf("load content %v: %w", key, err)
	}
	return decodeContent(body)
}

func (c *Catalog) Channel(ctx context.Context, uri string) (model.Channel, error) {
	var body string
	err := c.db.DB().QueryRowContext(ctx, `SELECT body FROM channels WHERE uri = ?`, uri).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Channel{}, services.Wrap(services.ErrNotFound, "catalog", "channel", uri, nil)
	}
	if err != nil {
		return model.Channel{}, fmt.Errorf("load channel %s: %w", uri, err)
	}
	var ch model.Channel
	if err := json.Unmarshal([]byte(body), &ch); err != nil {
		return model.Channel{}, fmt.Errorf("decode channel %s: %w", uri, err)
	}
	return ch, nil
}

// SearchTitle finds content whose normalised title contains, or is contained
// in, the normalised query.
func (c *Catalog) SearchTitle(ctx context.Context, title string, publishers []string, kinds []model.Kind) ([]model.Content, error) {
	key := TitleKey(title)
	if len([]rune(key)) < 3 {
		return nil, nil
	}
	query := strings.Builder{}
	query.WriteString(`SELECT body FROM content WHERE active = 1 AND length(title_key) >= 3
		AND (title_key = ? OR instr(title_key, ?) > 0 OR instr(?, title_key) > 0)`)
	args := []any{key, key, key}
	args = appendIn(&query, "publisher", publishers, args)
	args = appendIn(&query, "kind", kindStrings(kinds), args)
	query.WriteString(` ORDER BY title_key = ? DESC, id LIMIT ?`)
	args = append(args, key, searchLimit)
	return c.queryContent(ctx, query.String(), args...)
}

// List returns a publisher's active content of the given kinds in ID order.
func (c *Catalog) List(ctx context.Context, publisher string, kinds []model.Kind) ([]model.Content, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT body FROM content WHERE active = 1 AND publisher = ?`)
	args := appendIn(&query, "kind", kindStrings(kinds), []any{publisher})
	query.WriteString(` ORDER BY id`)
	return c.queryContent(ctx, query.String(), args...)
}

func (c *Catalog) queryContent(ctx context.Context, query string, args ...any) ([]model.Content, error) {
	rows, err := c.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query content: %w", err)
	}
	defer rows.Close()
	var out []model.Content
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		item, err := decodeContent(body)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// UnmergedSchedule returns, per channel and publisher, the items broadcast
// inside [start, end) ordered by transmission start. Each item carries only
// the matching broadcast.
func (c *Catalog) UnmergedSchedule(ctx context.Context, start, end time.Time, channels, publishers []string) ([]resolve.ChannelSchedule, error) {
	if len(channels) == 0 {
		return nil, nil
	}
	query := strings.Builder{}
	query.WriteString(`SELECT b.channel_uri, b.publisher, b.start_at, b.end_at, b.active, c.body
		FROM broadcasts b JOIN content c ON c.id = b.content_id
		WHERE b.start_at < ? AND b.end_at > ?`)
	args := []any{end.Unix(), start.Unix()}
	args = appendIn(&query, "b.channel_uri", channels, args)
	args = appendIn(&query, "b.publisher", publishers, args)
	query.WriteString(` ORDER BY b.channel_uri, b.publisher, b.start_at, c.uri`)

	rows, err := c.db.DB().QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query schedule: %w", err)
	}
	defer rows.Close()

	var out []resolve.ChannelSchedule
	for rows.Next() {
		var (
			channel, publisher, body string
			startAt, endAt           int64
			active                   int
		)
		if err := rows.Scan(&channel, &publisher, &startAt, &endAt, &active, &body); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		item, err := decodeContent(body)
		if err != nil {
			return nil, err
		}
		item.Broadcasts = []model.Broadcast{{
			ChannelURI: channel,
			Start:      time.Unix(startAt, 0).UTC(),
			End:        time.Unix(endAt, 0).UTC(),
			Active:     active != 0,
		}}
		if n := len(out); n == 0 || out[n-1].ChannelURI != channel || out[n-1].Publisher != publisher {
			out = append(out, resolve.ChannelSchedule{ChannelURI: channel, Publisher: publisher})
		}
		out[len(out)-1].Items = append(out[len(out)-1].Items, item)
	}
	return out, rows.Err()
}

func decodeContent(body string) (model.Content, error) {
	var item model.Content
	if err := json.Unmarshal([]byte(body), &item); err != nil {
		return model.Content{}, fmt.Errorf("decode content: %w", err)
	}
	return item, nil
}

func appendIn(query *strings.Builder, column string, values []string, args []any) []any {
	if len(values) == 0 {
		return args
	}
	query.WriteString(" AND ")
	query.WriteString(column)
	query.WriteString(" IN (")
	for i, v := range values {
		if i > 0 {
			query.WriteString(", ")
		}
		query.WriteString("?")
		args = append(args, v)
	}
	query.WriteString(")")
	return args
}

func kindStrings(kinds []model.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

var _ resolve.Catalog = (*Catalog)(nil)
