package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"equiv/internal/config"
	"equiv/internal/model"
	"equiv/internal/services"
)

// Bounded wraps a Catalog so that every lookup waits at most timeout and is
// throttled by a shared rate limiter. Deadline overruns surface as
// services.ErrTimeout.
type Bounded struct {
	inner   Catalog
	timeout time.Duration
	limiter *rate.Limiter
}

// NewBounded wraps inner. A non-positive timeout disables the deadline and a
// non-positive rate disables throttling.
func NewBounded(inner Catalog, timeout time.Duration, perSecond float64, burst int) *Bounded {
	b := &Bounded{inner: inner, timeout: timeout}
	if perSecond > 0 {
		if burst <= 0 {
			burst = 1
		}
		b.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return b
}

// NewBoundedFromConfig applies the [lookup] settings.
func NewBoundedFromConfig(inner Catalog, cfg *config.Config) *Bounded {
	return NewBounded(inner, cfg.LookupTimeout(), cfg.Lookup.RatePerSecond, cfg.Lookup.Burst)
}

func (b *Bounded) call(ctx context.Context, op, key string, fn func(context.Context) error) error {
	callCtx := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	if b.limiter != nil {
		if err := b.limiter.Wait(callCtx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return services.Wrap(services.ErrTimeout, "lookup", op, "rate limit wait exceeded deadline for "+key, err)
		}
	}
	err := fn(callCtx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return services.Wrap(services.ErrTimeout, "lookup", op, fmt.Sprintf("%s after %s", key, b.timeout), err)
	}
	return err
}

func (b *Bounded) UnmergedSchedule(ctx context.Context, start, end time.Time, channels, publishers []string) ([]ChannelSchedule, error) {
	var out []ChannelSchedule
	err := b.call(ctx, "schedule", strings.Join(channels, ","), func(ctx context.Context) error {
		var err error
		out, err = b.inner.UnmergedSchedule(ctx, start, end, channels, publishers)
		return err
	})
	return out, err
}

func (b *Bounded) Channel(ctx context.Context, uri string) (model.Channel, error) {
	var out model.Channel
	err := b.call(ctx, "channel", uri, func(ctx context.Context) error {
		var err error
		out, err = b.inner.Channel(ctx, uri)
		return err
	})
	return out, err
}

func (b *Bounded) Content(ctx context.Context, uri string) (model.Content, error) {
	var out model.Content
	err := b.call(ctx, "content", uri, func(ctx context.Context) error {
		var err error
		out, err = b.inner.Content(ctx, uri)
		return err
	})
	return out, err
}

func (b *Bounded) ContentByID(ctx context.Context, id int64) (model.Content, error) {
	var out model.Content
	err := b.call(ctx, "content", fmt.Sprintf("id %d", id), func(ctx context.Context) error {
		var err error
		out, err = b.inner.ContentByID(ctx, id)
		return err
	})
	return out, err
}

func (b *Bounded) SearchTitle(ctx context.Context, title string, publishers []string, kinds []model.Kind) ([]model.Content, error) {
	var out []model.Content
	err := b.call(ctx, "search", title, func(ctx context.Context) error {
		var err error
		out, err = b.inner.SearchTitle(ctx, title, publishers, kinds)
		return err
	})
	return out, err
}

// List walks a whole publisher catalog, so it is throttled but not bounded by
// the per-lookup timeout.
func (b *Bounded) List(ctx context.Context, publisher string, kinds []model.Kind) ([]model.Content, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return b.inner.List(ctx, publisher, kinds)
}

var _ Catalog = (*Bounded)(nil)
