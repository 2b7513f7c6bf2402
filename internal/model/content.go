package model

import (
	"slices"
	"strings"
	"time"
)

// Kind classifies a content record.
type Kind string

const (
	KindItem    Kind = "item"
	KindEpisode Kind = "episode"
	KindFilm    Kind = "film"
	KindClip    Kind = "clip"
	KindBrand   Kind = "brand"
	KindSeries  Kind = "series"
)

var allKinds = []Kind{KindItem, KindEpisode, KindFilm, KindClip, KindBrand, KindSeries}

var kindSet = func() map[Kind]struct{} {
	set := make(map[Kind]struct{}, len(allKinds))
	for _, k := range allKinds {
		set[k] = struct{}{}
	}
	return set
}()

// AllKinds returns every known kind in declaration order.
func AllKinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// ParseKind normalizes value and reports whether it names a known kind.
func ParseKind(value string) (Kind, bool) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := kindSet[normalized]
	return normalized, ok
}

// IsContainer reports whether the kind groups other content.
func (k Kind) IsContainer() bool {
	return k == KindBrand || k == KindSeries
}

// MediaType distinguishes audio from video content.
type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
)

// Ref identifies a content record or lookup entry.
type Ref struct {
	ID        int64  `json:"id"`
	URI       string `json:"uri"`
	Publisher string `json:"publisher"`
}

// IsZero reports whether the reference is unset.
func (r Ref) IsZero() bool { return r.ID == 0 && r.URI == "" }

// CanonicalURI satisfies score.Keyed so references can be scored directly.
func (r Ref) CanonicalURI() string { return r.URI }

// Broadcast is one transmission of a content item on a channel.
type Broadcast struct {
	ChannelURI string    `json:"channel"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Active     bool      `json:"active"`
}

// Duration is the scheduled length of the slot.
func (b Broadcast) Duration() time.Duration { return b.End.Sub(b.Start) }

// SameSlot reports whether both broadcasts occupy exactly the same times.
func (b Broadcast) SameSlot(other Broadcast) bool {
	return b.Start.Equal(other.Start) && b.End.Equal(other.End)
}

// Content is one publisher's record of an item, episode, film or container.
type Content struct {
	ID            int64       `json:"id"`
	URI           string      `json:"uri"`
	Publisher     string      `json:"publisher"`
	Kind          Kind        `json:"kind"`
	Title         string      `json:"title"`
	Description   string      `json:"description,omitempty"`
	Year          int         `json:"year,omitempty"`
	MediaType     MediaType   `json:"media_type,omitempty"`
	Active        bool        `json:"active"`
	Container     *Ref        `json:"container,omitempty"`
	Series        *Ref        `json:"series,omitempty"`
	Children      []Ref       `json:"children,omitempty"`
	SeriesNumber  int         `json:"series_number,omitempty"`
	EpisodeNumber int         `json:"episode_number,omitempty"`
	Broadcasts    []Broadcast `json:"broadcasts,omitempty"`
}

// CanonicalURI keys the content in candidate sets.
func (c Content) CanonicalURI() string { return c.URI }

// Ref returns the lookup reference of the content.
func (c Content) Ref() Ref {
	return Ref{ID: c.ID, URI: c.URI, Publisher: c.Publisher}
}

// Label is the human title recorded with results.
func (c Content) Label() string { return c.Title }

// KindName returns the kind as a plain string.
func (c Content) KindName() string { return string(c.Kind) }

// IsTopLevelSeries reports whether the content is a series without a brand.
func (c Content) IsTopLevelSeries() bool {
	return c.Kind == KindSeries && c.Container == nil
}

// ActiveBroadcasts returns the actively published broadcasts.
func (c Content) ActiveBroadcasts() []Broadcast {
	out := make([]Broadcast, 0, len(c.Broadcasts))
	for _, b := range c.Broadcasts {
		if b.Active {
			out = append(out, b)
		}
	}
	return out
}

// Parent returns the nearest container reference: the series for an episode
// that has one, otherwise the brand.
func (c Content) Parent() (Ref, bool) {
	if c.Series != nil && !c.Series.IsZero() {
		return *c.Series, true
	}
	if c.Container != nil && !c.Container.IsZero() {
		return *c.Container, true
	}
	return Ref{}, false
}

// Clone returns a deep copy so callers can never mutate shared records.
func (c Content) Clone() Content {
	out := c
	if c.Container != nil {
		ref := *c.Container
		out.Container = &ref
	}
	if c.Series != nil {
		ref := *c.Series
		out.Series = &ref
	}
	out.Children = slices.Clone(c.Children)
	out.Broadcasts = slices.Clone(c.Broadcasts)
	return out
}
