package combiner

import (
	"errors"
	"slices"
	"testing"

	"equiv/internal/config"
	"equiv/internal/model"
	"equiv/internal/results"
	"equiv/internal/score"
	"equiv/internal/services"
)

func content(uri, publisher string) model.Content {
	return model.Content{URI: uri, Publisher: publisher, Title: uri}
}

func set(source string, scores map[string]score.Score) score.Candidates[model.Content] {
	b := score.NewBuilder[model.Content](source)
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		b.Update(content(k, "pa"), scores[k])
	}
	return b.Build()
}

func mustNew(t *testing.T, cfg config.Combiner) *Combiner[model.Content] {
	t.Helper()
	c, err := New[model.Content](cfg)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func rowFor(t *testing.T, table results.Table, uri string) results.Row {
	t.Helper()
	for _, r := range table.Rows {
		if r.Candidate.URI == uri {
			return r
		}
	}
	t.Fatalf("no row for %s", uri)
	return results.Row{}
}

func TestNewRejectsUnknownMode(t *testing.T) {
	_, err := New[model.Content](config.Combiner{Mode: "median"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestSumCombinesRealScoresOnly(t *testing.T) {
	c := mustNew(t, config.Combiner{Mode: "sum", StrongThreshold: 2})
	sets := []score.Candidates[model.Content]{
		set("title", map[string]score.Score{"a": score.Real(2), "b": score.Real(1), "c": score.Null, "d": score.NaN}),
		set("broadcast", map[string]score.Score{"a": score.Real(1), "b": score.Null, "c": score.Null}),
	}
	survivors := []model.Content{content("d", "pa"), content("c", "pa"), content("b", "pa"), content("a", "pa")}
	table, _ := c.Combine("main", sets, survivors)

	if !slices.Equal(table.Sources, []string{"broadcast", "title"}) {
		t.Fatalf("sources = %v", table.Sources)
	}
	var order []string
	for _, r := range table.Rows {
		order = append(order, r.Candidate.URI)
	}
	if !slices.Equal(order, []string{"a", "b", "c", "d"}) {
		t.Fatalf("rows not sorted by URI: %v", order)
	}

	a := rowFor(t, table, "a")
	if a.Combined != score.Real(3) || !a.Strong {
		t.Fatalf("a = %s strong=%v", a.Combined, a.Strong)
	}
	if got := a.Score(table.Sources, "broadcast"); got != score.Real(1) {
		t.Fatalf("a broadcast = %s", got)
	}
	b := rowFor(t, table, "b")
	if b.Combined != score.Real(1) || b.Strong {
		t.Fatalf("b = %s strong=%v", b.Combined, b.Strong)
	}
	if c := rowFor(t, table, "c"); !c.Combined.IsNull() || c.Strong {
		t.Fatalf("c = %s strong=%v", c.Combined, c.Strong)
	}
	// NaN from a non-required source is simply not real.
	if d := rowFor(t, table, "d"); !d.Combined.IsNull() || d.Strong {
		t.Fatalf("d = %s strong=%v", d.Combined, d.Strong)
	}
}

func TestWeightsAndMaxMode(t *testing.T) {
	sets := []score.Candidates[model.Content]{
		set("title", map[string]score.Score{"a": score.Real(2)}),
		set("description", map[string]score.Score{"a": score.Real(1)}),
	}
	survivors := []model.Content{content("a", "pa")}

	sum := mustNew(t, config.Combiner{Mode: "sum", StrongThreshold: 2, Weights: map[string]float64{"title": 0.5}})
	table, _ := sum.Combine("main", sets, survivors)
	if got := table.Rows[0]; got.Combined != score.Real(2) || !got.Strong {
		t.Fatalf("weighted sum = %s strong=%v", got.Combined, got.Strong)
	}

	maxed := mustNew(t, config.Combiner{Mode: "max", StrongThreshold: 2})
	table, _ = maxed.Combine("main", sets, survivors)
	if got := table.Rows[0]; got.Combined != score.Real(2) || !got.Strong {
		t.Fatalf("max = %s strong=%v", got.Combined, got.Strong)
	}
}

func TestRequiredSource(t *testing.T) {
	c := mustNew(t, config.Combiner{Mode: "sum", StrongThreshold: 1, Required: []string{"title"}})
	sets := []score.Candidates[model.Content]{
		set("title", map[string]score.Score{"nan": score.NaN, "null": score.Null, "real": score.Real(1)}),
		set("broadcast", map[string]score.Score{"nan": score.Real(5), "null": score.Real(5), "real": score.Real(1)}),
	}
	survivors := []model.Content{content("nan", "pa"), content("null", "pa"), content("real", "bt")}
	table, _ := c.Combine("main", sets, survivors)

	if r := rowFor(t, table, "nan"); !r.Combined.IsNaN() || r.Strong {
		t.Fatalf("nan = %s strong=%v", r.Combined, r.Strong)
	}
	if r := rowFor(t, table, "null"); r.Combined != score.Real(5) || r.Strong {
		t.Fatalf("null = %s strong=%v", r.Combined, r.Strong)
	}
	if r := rowFor(t, table, "real"); !r.Strong {
		t.Fatal("real should be strong")
	}
}

func TestOnePerPublisher(t *testing.T) {
	c := mustNew(t, config.Combiner{Mode: "sum", StrongThreshold: 1, OnePerPublisher: true})
	b := score.NewBuilder[model.Content]("title")
	b.Update(content("pa:b", "pa"), score.Real(2))
	b.Update(content("pa:a", "pa"), score.Real(2))
	b.Update(content("pa:c", "pa"), score.Real(3))
	b.Update(content("bt:a", "bt"), score.Real(1))
	b.Update(content("it:a", "it"), score.Real(1))
	b.Update(content("it:b", "it"), score.Real(1))
	survivors := []model.Content{content("pa:a", "pa"), content("pa:b", "pa"), content("pa:c", "pa"), content("bt:a", "bt"), content("it:a", "it"), content("it:b", "it")}

	table, _ := c.Combine("main", []score.Candidates[model.Content]{b.Build()}, survivors)
	var strong []string
	for _, ref := range table.Strong() {
		strong = append(strong, ref.URI)
	}
	if !slices.Equal(strong, []string{"bt:a", "it:a", "pa:c"}) {
		t.Fatalf("strong = %v", strong)
	}
}

func TestDuplicateSourcesMerge(t *testing.T) {
	c := mustNew(t, config.Combiner{Mode: "sum", StrongThreshold: 2})
	sets := []score.Candidates[model.Content]{
		set("title", map[string]score.Score{"a": score.Real(1)}),
		set("title", map[string]score.Score{"a": score.Real(1)}),
	}
	table, _ := c.Combine("main", sets, []model.Content{content("a", "pa"), content("a", "pa")})
	if len(table.Sources) != 1 || len(table.Rows) != 1 {
		t.Fatalf("sources=%v rows=%d", table.Sources, len(table.Rows))
	}
	if r := table.Rows[0]; r.Combined != score.Real(2) || !r.Strong {
		t.Fatalf("a = %s strong=%v", r.Combined, r.Strong)
	}
}

func TestCombinesChannelSubjects(t *testing.T) {
	c, err := New[model.Channel](config.Combiner{Mode: "sum", StrongThreshold: 2, OnePerPublisher: true})
	if err != nil {
		t.Fatal(err)
	}
	one := model.Channel{ID: 7, URI: "pa:one", Title: "BBC One", Publisher: "pa"}
	two := model.Channel{ID: 8, URI: "pa:two", Title: "BBC Two", Publisher: "pa"}
	titles := score.NewBuilder[model.Channel]("title").
		Update(one, score.Real(2)).
		Update(two, score.Real(1)).
		Build()

	table, _ := c.Combine("combined", []score.Candidates[model.Channel]{titles}, []model.Channel{two, one})
	row := rowFor(t, table, "pa:one")
	if !row.Strong || row.Title != "BBC One" || row.Candidate.ID != 7 {
		t.Fatalf("unexpected channel row %+v", row)
	}
	if rowFor(t, table, "pa:two").Strong {
		t.Fatal("weaker channel marked strong")
	}
}
