package resolve

import (
	"context"
	"time"

	"equiv/internal/model"
)

// ChannelSchedule is one publisher's ordered schedule on one channel. Every
// item carries exactly the broadcast that fell inside the requested window.
type ChannelSchedule struct {
	ChannelURI string
	Publisher  string
	Items      []model.Content
}

// ScheduleResolver returns unmerged per-channel schedules.
type ScheduleResolver interface {
	UnmergedSchedule(ctx context.Context, start, end time.Time, channels, publishers []string) ([]ChannelSchedule, error)
}

// ChannelResolver looks up a channel record by URI.
type ChannelResolver interface {
	Channel(ctx context.Context, uri string) (model.Channel, error)
}

// ContentResolver looks up content records.
type ContentResolver interface {
	Content(ctx context.Context, uri string) (model.Content, error)
	ContentByID(ctx context.Context, id int64) (model.Content, error)
	SearchTitle(ctx context.Context, title string, publishers []string, kinds []model.Kind) ([]model.Content, error)
	List(ctx context.Context, publisher string, kinds []model.Kind) ([]model.Content, error)
}

// Catalog bundles every resolver the pipeline consumes.
type Catalog interface {
	ScheduleResolver
	ChannelResolver
	ContentResolver
}
