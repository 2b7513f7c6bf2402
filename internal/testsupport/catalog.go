package testsupport

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"equiv/internal/model"
	"equiv/internal/resolve"
	"equiv/internal/services"
)

// FakeCatalog is an in-memory resolve.Catalog for pipeline tests. Hooks let a
// test delay or fail individual lookups.
type FakeCatalog struct {
	mu       sync.Mutex
	content  map[string]model.Content
	order    []string
	channels map[string]model.Channel

	// ScheduleHook runs before each schedule lookup. A non-nil error is
	// returned to the caller.
	ScheduleHook func(ctx context.Context, channels, publishers []string) error
	// ContentHook runs before each content lookup by URI.
	ContentHook func(ctx context.Context, uri string) error

	calls map[string]int
}

// NewFakeCatalog returns an empty catalog.
func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{
		content:  make(map[string]model.Content),
		channels: make(map[string]model.Channel),
		calls:    make(map[string]int),
	}
}

// AddContent stores records, assigning IDs in insertion order when unset.
func (f *FakeCatalog) AddContent(items ...model.Content) *FakeCatalog {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range items {
		if _, ok := f.content[c.URI]; !ok {
			f.order = append(f.order, c.URI)
		}
		if c.ID == 0 {
			c.ID = int64(len(f.order))
		}
		f.content[c.URI] = c.Clone()
	}
	return f
}

// AddChannel stores channel records.
func (f *FakeCatalog) AddChannel(channels ...model.Channel) *FakeCatalog {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range channels {
		f.channels[ch.URI] = ch
	}
	return f
}

// Get returns the stored record for uri, with its assigned ID.
func (f *FakeCatalog) Get(uri string) model.Content {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.content[uri].Clone()
}

// Calls reports how often op was invoked.
func (f *FakeCatalog) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *FakeCatalog) count(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *FakeCatalog) UnmergedSchedule(ctx context.Context, start, end time.Time, channels, publishers []string) ([]resolve.ChannelSchedule, error) {
	f.count("schedule")
	if f.ScheduleHook != nil {
		if err := f.ScheduleHook(ctx, channels, publishers); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []resolve.ChannelSchedule
	for _, channel := range channels {
		byPublisher := make(map[string][]model.Content)
		var pubs []string
		for _, uri := range f.order {
			c := f.content[uri]
			if len(publishers) > 0 && !slices.Contains(publishers, c.Publisher) {
				continue
			}
			for _, b := range c.Broadcasts {
				if b.ChannelURI != channel || !b.Start.Before(end) || !b.End.After(start) {
					continue
				}
				item := c.Clone()
				item.Broadcasts = []model.Broadcast{b}
				if _, ok := byPublisher[c.Publisher]; !ok {
					pubs = append(pubs, c.Publisher)
				}
				byPublisher[c.Publisher] = append(byPublisher[c.Publisher], item)
			}
		}
		for _, pub := range pubs {
			items := byPublisher[pub]
			slices.SortStableFunc(items, func(a, b model.Content) int {
				return a.Broadcasts[0].Start.Compare(b.Broadcasts[0].Start)
			})
			out = append(out, resolve.ChannelSchedule{ChannelURI: channel, Publisher: pub, Items: items})
		}
	}
	return out, nil
}

func (f *FakeCatalog) Channel(_ context.Context, uri string) (model.Channel, error) {
	f.count("channel")
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[uri]
	if !ok {
		return model.Channel{}, services.Wrap(services.ErrNotFound, "catalog", "channel", uri, nil)
	}
	return ch, nil
}

func (f *FakeCatalog) Content(ctx context.Context, uri string) (model.Content, error) {
	f.count("content")
	if f.ContentHook != nil {
		if err := f.ContentHook(ctx, uri); err != nil {
			return model.Content{}, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.content[uri]
	if !ok {
		return model.Content{}, services.Wrap(services.ErrNotFound, "catalog", "content", uri, nil)
	}
	return c.Clone(), nil
}

func (f *FakeCatalog) ContentByID(_ context.Context, id int64) (model.Content, error) {
	f.count("content_by_id")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, uri := range f.order {
		if c := f.content[uri]; c.ID == id {
			return c.Clone(), nil
		}
	}
	return model.Content{}, services.Wrap(services.ErrNotFound, "catalog", "content", "unknown id", nil)
}

// SearchTitle matches case-insensitive substrings in either direction.
func (f *FakeCatalog) SearchTitle(_ context.Context, title string, publishers []string, kinds []model.Kind) ([]model.Content, error) {
	f.count("search")
	needle := strings.ToLower(strings.TrimSpace(title))
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Content
	for _, uri := range f.order {
		c := f.content[uri]
		if len(publishers) > 0 && !slices.Contains(publishers, c.Publisher) {
			continue
		}
		if len(kinds) > 0 && !slices.Contains(kinds, c.Kind) {
			continue
		}
		hay := strings.ToLower(c.Title)
		if needle == "" || hay == "" || (!strings.Contains(hay, needle) && !strings.Contains(needle, hay)) {
			continue
		}
		out = append(out, c.Clone())
	}
	return out, nil
}

func (f *FakeCatalog) List(_ context.Context, publisher string, kinds []model.Kind) ([]model.Content, error) {
	f.count("list")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Content
	for _, uri := range f.order {
		c := f.content[uri]
		if c.Publisher != publisher || !c.Active {
			continue
		}
		if len(kinds) > 0 && !slices.Contains(kinds, c.Kind) {
			continue
		}
		out = append(out, c.Clone())
	}
	return out, nil
}

var _ resolve.Catalog = (*FakeCatalog)(nil)
