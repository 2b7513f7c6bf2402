package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTTLExpiresWithManualClock(t *testing.T) {
	clock := NewManualClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	c := NewTTL[string]("titles", time.Minute, clock, nil)

	c.Set("brand", "The Simpsons")
	if v, ok := c.Get("brand"); !ok || v != "The Simpsons" {
		t.Fatalf("Get = %q, %v", v, ok)
	}

	clock.Advance(59 * time.Second)
	if _, ok := c.Get("brand"); !ok {
		t.Fatal("entry expired too early")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get("brand"); ok {
		t.Fatal("entry should have expired")
	}
	if removed := c.Purge(); removed != 1 {
		t.Fatalf("Purge removed %d", removed)
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d", c.Len())
	}
}

func TestGetOrLoadCachesSuccessOnly(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	c := NewTTL[string]("titles", 0, clock, nil)
	calls := 0

	_, err := c.GetOrLoad(context.Background(), "k", func(context.Context) (string, error) {
		calls++
		return "", errors.New("catalog down")
	})
	if err == nil {
		t.Fatal("expected load error")
	}

	load := func(context.Context) (string, error) {
		calls++
		return "value", nil
	}
	for range 3 {
		v, err := c.GetOrLoad(context.Background(), "k", load)
		if err != nil || v != "value" {
			t.Fatalf("GetOrLoad = %q, %v", v, err)
		}
	}
	if calls != 2 {
		t.Fatalf("expected 2 loads, got %d", calls)
	}

	clock.Advance(DefaultTTL)
	if _, err := c.GetOrLoad(context.Background(), "k", load); err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Fatalf("expected reload after expiry, got %d calls", calls)
	}
}
