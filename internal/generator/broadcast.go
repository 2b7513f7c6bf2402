package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"equiv/internal/config"
	"equiv/internal/logging"
	"equiv/internal/model"
	"equiv/internal/resolve"
	"equiv/internal/score"
	"equiv/internal/services"
	"equiv/internal/trace"
)

const scheduleLookupLimit = 4

// Broadcast matches the subject's broadcast slots against other publishers'
// schedules on equivalent channels.
type Broadcast struct {
	schedules resolve.ScheduleResolver
	channels  resolve.ChannelResolver
	cfg       config.BroadcastMatching
	targets   []string
	now       func() time.Time
	logger    *slog.Logger
}

// NewBroadcast builds the generator. targets restricts which publishers'
// channels are searched.
func NewBroadcast(schedules resolve.ScheduleResolver, channels resolve.ChannelResolver, cfg config.BroadcastMatching, targets []string, logger *slog.Logger) *Broadcast {
	return &Broadcast{
		schedules: schedules,
		channels:  channels,
		cfg:       cfg,
		targets:   targets,
		now:       time.Now,
		logger:    logging.NewComponentLogger(logger, "generator-broadcast"),
	}
}

// WithClock overrides the clock used by the broadcast time bounds.
func (g *Broadcast) WithClock(now func() time.Time) *Broadcast {
	g.now = now
	return g
}

func (g *Broadcast) Name() string { return "broadcast" }

func (g *Broadcast) Generate(ctx context.Context, subject model.Content) (score.Candidates[model.Content], trace.Node, error) {
	builder := score.NewBuilder[model.Content](g.Name())
	tr := trace.New("broadcast generator")
	targets := targetsExcluding(g.targets, subject.Publisher)
	if len(targets) == 0 {
		tr.Line("no target publishers")
		return builder.Build(), tr.Node(), nil
	}

	for _, b := range subject.ActiveBroadcasts() {
		if !g.accept(b) {
			tr.Linef("%s: outside broadcast bounds", describeSlot(b))
			continue
		}
		child, err := g.matchBroadcast(ctx, subject, b, targets, builder)
		if err != nil {
			return score.Empty[model.Content](g.Name()), tr.Node(), err
		}
		tr.Child(child)
	}
	return builder.Build(), tr.Node(), nil
}

func (g *Broadcast) matchBroadcast(ctx context.Context, subject model.Content, b model.Broadcast, targets []string, builder *score.Builder[model.Content]) (trace.Node, error) {
	tr := trace.New(describeSlot(b))
	start, end := b.Start.Add(-g.cfg.Window()), b.End.Add(g.cfg.Window())

	own, err := g.schedules.UnmergedSchedule(ctx, start, end, []string{b.ChannelURI}, []string{subject.Publisher})
	if err != nil {
		if ctx.Err() != nil {
			return tr.Node(), ctx.Err()
		}
		if !services.Abstains(err) {
			return tr.Node(), fmt.Errorf("own schedule for %s: %w", b.ChannelURI, err)
		}
		logging.WarnWithContext(g.logger, "own schedule lookup failed; broadcast skipped", "broadcast_skipped",
			logging.String(logging.FieldSubject, subject.URI),
			logging.String("channel", b.ChannelURI),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the catalog for this channel"),
			logging.String(logging.FieldImpact, "no candidates from this broadcast"),
		)
		tr.Linef("own schedule lookup failed (%s): skipped", services.Outcome(err))
		return tr.Node(), nil
	}
	var ownItems []model.Content
	for _, sched := range own {
		if sched.ChannelURI == b.ChannelURI && sched.Publisher == subject.Publisher {
			ownItems = append(ownItems, sched.Items...)
		}
	}
	idx := FindSubjectInSchedule(ownItems, b)
	if idx < 0 {
		tr.Linef("slot not found in own schedule of %d items: skipped", len(ownItems))
		return tr.Node(), nil
	}
	tr.Linef("found own slot %s at index %d of %d", ownItems[idx].URI, idx, len(ownItems))

	channel, err := g.channels.Channel(ctx, b.ChannelURI)
	if err != nil {
		if ctx.Err() != nil {
			return tr.Node(), ctx.Err()
		}
		if !services.Abstains(err) {
			return tr.Node(), fmt.Errorf("channel %s: %w", b.ChannelURI, err)
		}
		tr.Linef("channel lookup failed (%s): skipped", services.Outcome(err))
		return tr.Node(), nil
	}
	channelURIs := channel.EquivalentURIs(targets)
	if len(channelURIs) == 0 {
		tr.Line("no equivalent channels on target publishers")
		return tr.Node(), nil
	}

	schedules := make([][]resolve.ChannelSchedule, len(channelURIs))
	failures := make([]error, len(channelURIs))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(scheduleLookupLimit)
	for i, uri := range channelURIs {
		group.Go(func() error {
			sched, err := g.schedules.UnmergedSchedule(gctx, start, end, []string{uri}, targets)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if !services.Abstains(err) {
					return fmt.Errorf("schedule for %s: %w", uri, err)
				}
				failures[i] = err
				return nil
			}
			schedules[i] = sched
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return tr.Node(), err
	}

	var (
		publishers []string
		byPub      = make(map[string][]model.Content)
	)
	for i, uri := range channelURIs {
		if failures[i] != nil {
			tr.Linef("%s: schedule lookup failed (%s): abstained", uri, services.Outcome(failures[i]))
			g.logger.Debug("candidate schedule lookup failed",
				logging.String(logging.FieldSubject, subject.URI),
				logging.String("channel", uri),
				logging.Error(failures[i]),
			)
			continue
		}
		for _, sched := range schedules[i] {
			if _, ok := byPub[sched.Publisher]; !ok {
				publishers = append(publishers, sched.Publisher)
			}
			byPub[sched.Publisher] = append(byPub[sched.Publisher], sched.Items...)
		}
	}

	for _, pub := range publishers {
		best, delta, ok := g.closest(subject, b, byPub[pub])
		if !ok {
			tr.Linef("%s: no slot within tolerance", pub)
			continue
		}
		builder.Update(best, score.Real(g.cfg.MaxScore))
		tr.Linef("%s: matched %s offset %s", pub, best.URI, delta)
	}
	return tr.Node(), nil
}

// closest scans items left to right and keeps the one whose start is nearest
// the subject's, within the adaptive tolerance. Only a strictly smaller
// offset replaces the current best, so ties keep the earlier item.
func (g *Broadcast) closest(subject model.Content, slot model.Broadcast, items []model.Content) (model.Content, time.Duration, bool) {
	var (
		best      model.Content
		bestDelta = time.Duration(math.MaxInt64)
		found     bool
	)
	for _, item := range items {
		if !item.Active || item.URI == subject.URI || len(item.Broadcasts) == 0 {
			continue
		}
		cb := item.Broadcasts[0]
		if !cb.Active || !g.accept(cb) {
			continue
		}
		delta := cb.Start.Sub(slot.Start)
		if delta < 0 {
			delta = -delta
		}
		if delta <= g.cfg.ToleranceFor(slot.Duration(), cb.Duration()) && delta < bestDelta {
			best, bestDelta, found = item, delta, true
		}
	}
	return best, bestDelta, found
}

// accept applies the optional transmission bounds relative to now.
func (g *Broadcast) accept(b model.Broadcast) bool {
	now := g.now()
	if g.cfg.EarliestHours > 0 && b.Start.Before(now.Add(-time.Duration(g.cfg.EarliestHours)*time.Hour)) {
		return false
	}
	if g.cfg.LatestHours > 0 && b.Start.After(now.Add(time.Duration(g.cfg.LatestHours)*time.Hour)) {
		return false
	}
	return true
}

// FindSubjectInSchedule returns the index of the item whose broadcast has
// exactly the start and end of b, or -1. The search starts at the middle of
// the list and alternates outwards, right before left.
func FindSubjectInSchedule(items []model.Content, b model.Broadcast) int {
	n := len(items)
	if n == 0 {
		return -1
	}
	matches := func(i int) bool {
		for _, ib := range items[i].Broadcasts {
			if ib.SameSlot(b) {
				return true
			}
		}
		return false
	}
	mid := n / 2
	if matches(mid) {
		return mid
	}
	for r := 1; mid+r < n || mid-r >= 0; r++ {
		if i := mid + r; i < n && matches(i) {
			return i
		}
		if i := mid - r; i >= 0 && matches(i) {
			return i
		}
	}
	return -1
}

func describeSlot(b model.Broadcast) string {
	return fmt.Sprintf("%s %s-%s", b.ChannelURI, b.Start.UTC().Format("2006-01-02T15:04"), b.End.UTC().Format("15:04"))
}
