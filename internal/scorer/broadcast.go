package scorer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"equiv/internal/config"
	"equiv/internal/logging"
	"equiv/internal/model"
	"equiv/internal/resolve"
	"equiv/internal/score"
	"equiv/internal/trace"
)

// Broadcast scores how closely the candidate's transmissions line up with the
// subject's on equivalent channels.
type Broadcast struct {
	channels resolve.ChannelResolver
	cfg      config.BroadcastMatching
	logger   *slog.Logger
}

func NewBroadcast(channels resolve.ChannelResolver, cfg config.BroadcastMatching, logger *slog.Logger) *Broadcast {
	return &Broadcast{
		channels: channels,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "scorer-broadcast"),
	}
}

func (s *Broadcast) Name() string { return "broadcast_alignment" }

func (s *Broadcast) Score(ctx context.Context, subject model.Content, candidates []model.Content) (score.Candidates[model.Content], trace.Node, error) {
	slots := subject.ActiveBroadcasts()
	equivalent := make(map[string][]string, len(slots))
	for _, b := range slots {
		if _, ok := equivalent[b.ChannelURI]; ok {
			continue
		}
		uris := []string{b.ChannelURI}
		channel, err := s.channels.Channel(ctx, b.ChannelURI)
		if err != nil {
			if ctx.Err() != nil {
				return score.Empty[model.Content](s.Name()), trace.Node{}, ctx.Err()
			}
			s.logger.Debug("channel lookup failed; matching on the same channel only",
				logging.String("channel", b.ChannelURI), logging.Error(err))
		} else {
			uris = append(uris, channel.EquivalentURIs(nil)...)
		}
		equivalent[b.ChannelURI] = uris
	}

	return scoreEach(ctx, s.Name(), "broadcast scorer", subject, candidates, func(_, candidate model.Content) (score.Score, string) {
		theirs := candidate.ActiveBroadcasts()
		if len(slots) == 0 || len(theirs) == 0 {
			return score.Null, "no active broadcasts"
		}
		best := s.cfg.MismatchScore
		why := "no aligned broadcast"
		for _, b := range slots {
			for _, cb := range theirs {
				if !slices.Contains(equivalent[b.ChannelURI], cb.ChannelURI) {
					continue
				}
				if b.SameSlot(cb) {
					return score.Real(s.cfg.MatchScore), "exact slot on " + cb.ChannelURI
				}
				delta := cb.Start.Sub(b.Start).Abs()
				if delta <= s.cfg.ToleranceFor(b.Duration(), cb.Duration()) && s.cfg.PartialScore > best {
					best = s.cfg.PartialScore
					why = fmt.Sprintf("offset %s on %s", delta, cb.ChannelURI)
				}
			}
		}
		return score.Real(best), why
	})
}
