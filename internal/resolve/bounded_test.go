package resolve_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"equiv/internal/model"
	"equiv/internal/resolve"
	"equiv/internal/services"
	"equiv/internal/testsupport"
)

func TestBoundedTimeoutBecomesErrTimeout(t *testing.T) {
	fake := testsupport.NewFakeCatalog().AddContent(model.Content{URI: "a", Publisher: "p", Active: true})
	fake.ContentHook = func(ctx context.Context, _ string) error {
		<-ctx.Done()
		return ctx.Err()
	}
	bounded := resolve.NewBounded(fake, 20*time.Millisecond, 0, 0)

	_, err := bounded.Content(context.Background(), "a")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !services.Abstains(err) {
		t.Fatal("timeout should be an abstention")
	}
}

func TestBoundedParentCancellationIsNotTimeout(t *testing.T) {
	fake := testsupport.NewFakeCatalog()
	fake.ContentHook = func(ctx context.Context, _ string) error {
		<-ctx.Done()
		return ctx.Err()
	}
	bounded := resolve.NewBounded(fake, time.Minute, 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := bounded.Content(ctx, "a")
	if errors.Is(err, services.ErrTimeout) {
		t.Fatalf("cancellation reported as timeout: %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBoundedPassesThroughResults(t *testing.T) {
	fake := testsupport.NewFakeCatalog().
		AddContent(model.Content{URI: "a", Publisher: "p", Title: "Alpha", Active: true}).
		AddChannel(model.Channel{URI: "ch", Publisher: "p"})
	bounded := resolve.NewBounded(fake, time.Second, 1000, 10)

	got, err := bounded.Content(context.Background(), "a")
	if err != nil || got.Title != "Alpha" {
		t.Fatalf("Content = %+v, %v", got, err)
	}
	if _, err := bounded.Channel(context.Background(), "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	list, err := bounded.List(context.Background(), "p", nil)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}
}
