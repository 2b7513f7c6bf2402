package catalog_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"equiv/internal/catalog"
	"equiv/internal/lookup"
	"equiv/internal/model"
	"equiv/internal/services"
	"equiv/internal/testsupport"
)

var base = time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC)

func slot(channel string, offset, length time.Duration) model.Broadcast {
	start := base.Add(offset)
	return model.Broadcast{ChannelURI: channel, Start: start, End: start.Add(length), Active: true}
}

func sampleDocument() catalog.Document {
	return catalog.Document{
		Channels: []model.Channel{
			{URI: "bbc:one", Publisher: "bbc", Title: "BBC One", Equivalents: []model.Ref{{URI: "pa:one", Publisher: "pa"}}},
			{URI: "pa:one", Publisher: "pa", Title: "BBC1"},
		},
		Content: []model.Content{
			{URI: "bbc:brand", Publisher: "bbc", Kind: model.KindBrand, Title: "The Simpsons", Active: true},
			{
				URI: "bbc:ep1", Publisher: "bbc", Kind: model.KindEpisode, Title: "Homer's Odyssey", Active: true,
				Container:  &model.Ref{URI: "bbc:brand"},
				Broadcasts: []model.Broadcast{slot("bbc:one", 0, 30*time.Minute)},
			},
			{
				URI: "pa:ep1", Publisher: "pa", Kind: model.KindEpisode, Title: "Simpsons", Active: true,
				Broadcasts: []model.Broadcast{slot("pa:one", -2*time.Minute, 33*time.Minute)},
			},
			{
				URI: "pa:later", Publisher: "pa", Kind: model.KindEpisode, Title: "News", Active: true,
				Broadcasts: []model.Broadcast{slot("pa:one", 31*time.Minute, 30*time.Minute)},
			},
		},
	}
}

func setup(t *testing.T) (*catalog.Catalog, *lookup.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	db := testsupport.MustOpenStore(t, cfg)
	return catalog.New(db, nil), lookup.NewStore(db)
}

func TestImportRegistersContentAndLookupEntries(t *testing.T) {
	cat, graph := setup(t)
	ctx := context.Background()

	stats, err := cat.Import(ctx, graph, sampleDocument())
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.Content != 4 || stats.Channels != 2 || stats.Broadcasts != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	ep, err := cat.Content(ctx, "bbc:ep1")
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if ep.ID == 0 || ep.Container == nil || ep.Container.ID == 0 || ep.Container.Publisher != "bbc" {
		t.Fatalf("references not resolved: %+v", ep)
	}
	brand, err := cat.ContentByID(ctx, ep.Container.ID)
	if err != nil {
		t.Fatalf("ContentByID: %v", err)
	}
	if len(brand.Children) != 1 || brand.Children[0].URI != "bbc:ep1" || brand.Children[0].ID != ep.ID {
		t.Fatalf("children not derived: %+v", brand.Children)
	}

	entry, ok, err := graph.EntryByURI(ctx, "bbc:ep1")
	if err != nil || !ok {
		t.Fatalf("lookup entry missing: %v %v", ok, err)
	}
	if entry.ID != ep.ID || entry.Kind != "episode" || !entry.Active {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestReimportMarksInactiveWithoutDeleting(t *testing.T) {
	cat, graph := setup(t)
	ctx := context.Background()
	doc := sampleDocument()
	if _, err := cat.Import(ctx, graph, doc); err != nil {
		t.Fatal(err)
	}
	first, _ := cat.Content(ctx, "pa:ep1")

	doc.Content[2].Active = false
	stats, err := cat.Import(ctx, graph, doc)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Inactive != 1 {
		t.Fatalf("inactive = %d", stats.Inactive)
	}
	again, err := cat.Content(ctx, "pa:ep1")
	if err != nil || again.ID != first.ID || again.Active {
		t.Fatalf("re-import changed identity or flag: %+v %v", again, err)
	}
	entry, ok, _ := graph.EntryByURI(ctx, "pa:ep1")
	if !ok || entry.Active {
		t.Fatalf("lookup entry not flagged inactive: %+v", entry)
	}
	list, err := cat.List(ctx, "pa", []model.Kind{model.KindEpisode})
	if err != nil || len(list) != 1 || list[0].URI != "pa:later" {
		t.Fatalf("List = %v, %v", list, err)
	}
}

func TestUnmergedScheduleGroupsByChannelAndPublisher(t *testing.T) {
	cat, graph := setup(t)
	ctx := context.Background()
	if _, err := cat.Import(ctx, graph, sampleDocument()); err != nil {
		t.Fatal(err)
	}

	schedules, err := cat.UnmergedSchedule(ctx, base.Add(-time.Hour), base.Add(2*time.Hour), []string{"pa:one", "bbc:one"}, []string{"pa"})
	if err != nil {
		t.Fatalf("UnmergedSchedule: %v", err)
	}
	if len(schedules) != 1 || schedules[0].ChannelURI != "pa:one" || schedules[0].Publisher != "pa" {
		t.Fatalf("unexpected schedules %+v", schedules)
	}
	items := schedules[0].Items
	if len(items) != 2 || items[0].URI != "pa:ep1" || items[1].URI != "pa:later" {
		t.Fatalf("unexpected order %+v", items)
	}
	if len(items[0].Broadcasts) != 1 || !items[0].Broadcasts[0].Start.Equal(base.Add(-2*time.Minute)) {
		t.Fatalf("unexpected broadcast %+v", items[0].Broadcasts)
	}

	narrow, err := cat.UnmergedSchedule(ctx, base, base.Add(20*time.Minute), []string{"pa:one"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(narrow) != 1 || len(narrow[0].Items) != 1 {
		t.Fatalf("window not applied: %+v", narrow)
	}
}

func TestSearchTitleMatchesNormalisedTitles(t *testing.T) {
	cat, graph := setup(t)
	ctx := context.Background()
	if _, err := cat.Import(ctx, graph, sampleDocument()); err != nil {
		t.Fatal(err)
	}

	hits, err := cat.SearchTitle(ctx, "The Simpsons", []string{"pa"}, []model.Kind{model.KindEpisode})
	if err != nil {
		t.Fatalf("SearchTitle: %v", err)
	}
	if len(hits) != 1 || hits[0].URI != "pa:ep1" {
		t.Fatalf("unexpected hits %+v", hits)
	}
	if hits, _ := cat.SearchTitle(ctx, "a", nil, nil); len(hits) != 0 {
		t.Fatalf("short query should not search, got %d hits", len(hits))
	}
}

func TestChannelAndNotFound(t *testing.T) {
	cat, graph := setup(t)
	ctx := context.Background()
	if _, err := cat.Import(ctx, graph, sampleDocument()); err != nil {
		t.Fatal(err)
	}
	ch, err := cat.Channel(ctx, "bbc:one")
	if err != nil {
		t.Fatalf("Channel: %v", err)
	}
	if got := ch.EquivalentURIs([]string{"pa"}); len(got) != 1 || got[0] != "pa:one" {
		t.Fatalf("EquivalentURIs = %v", got)
	}
	if _, err := cat.Channel(ctx, "nope"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := cat.Content(ctx, "nope"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestImportFileValidates(t *testing.T) {
	cat, graph := setup(t)
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	testsupport.WriteFile(t, bad, []byte(`{"content":[{"uri":"x","publisher":"","kind":"podcast"}]}`))
	_, err := cat.ImportFile(context.Background(), graph, bad)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "publisher is required") || !strings.Contains(err.Error(), "unknown kind") {
		t.Fatalf("error does not list problems: %v", err)
	}

	unknown := filepath.Join(dir, "unknown.json")
	testsupport.WriteFile(t, unknown, []byte(`{"items":[]}`))
	if _, err := cat.ImportFile(context.Background(), graph, unknown); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected unknown field rejection, got %v", err)
	}

	good := filepath.Join(dir, "good.json")
	testsupport.WriteJSON(t, good, sampleDocument())
	if _, err := cat.ImportFile(context.Background(), graph, good); err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
}

func TestTitleKey(t *testing.T) {
	tests := map[string]string{
		"The Simpsons":      "simpsons",
		"  Amélie  ":        "amelie",
		"Tom & Jerry":       "tom and jerry",
		"Doctor Who: Flux!": "doctor who flux",
	}
	for in, want := range tests {
		if got := catalog.TitleKey(in); got != want {
			t.Fatalf("TitleKey(%q) = %q, want %q", in, got, want)
		}
	}
}
