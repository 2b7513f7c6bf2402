package filter

import (
	"strings"
	"testing"

	"equiv/internal/config"
	"equiv/internal/model"
)

func film(uri, publisher string, year int) model.Content {
	return model.Content{URI: uri, Publisher: publisher, Kind: model.KindFilm, Year: year, Active: true}
}

func TestFilmYear(t *testing.T) {
	f := FilmYear(config.FilmFilter{YearTolerance: 1})
	tests := []struct {
		name      string
		subject   int
		candidate int
		keep      bool
	}{
		{"two years apart", 2016, 2014, false},
		{"one year apart", 2016, 2015, true},
		{"one year later", 2016, 2017, true},
		{"same year", 2016, 2016, true},
		{"subject year missing", 0, 2014, true},
		{"candidate year missing", 2016, 0, true},
		{"both missing", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keep, reason := f.Apply(film("b", "pa", tt.candidate), film("a", "bbc", tt.subject))
			if keep != tt.keep {
				t.Fatalf("keep = %v (%s), want %v", keep, reason, tt.keep)
			}
		})
	}
}

func TestFilmYearIgnoresNonFilms(t *testing.T) {
	f := FilmYear(config.FilmFilter{YearTolerance: 1})
	a := model.Content{URI: "a", Kind: model.KindEpisode, Year: 2000}
	b := model.Content{URI: "b", Kind: model.KindEpisode, Year: 2020}
	if keep, _ := f.Apply(b, a); !keep {
		t.Fatal("episodes must not be filtered on year")
	}
}

func TestHierarchy(t *testing.T) {
	brand := model.Content{URI: "brand", Kind: model.KindBrand}
	topSeries := model.Content{URI: "top", Kind: model.KindSeries}
	series := model.Content{URI: "series", Kind: model.KindSeries, Container: &model.Ref{URI: "brand"}}
	episode := model.Content{URI: "ep", Kind: model.KindEpisode}

	tests := []struct {
		name      string
		subject   model.Content
		candidate model.Content
		keep      bool
	}{
		{"top series to top series", topSeries, topSeries, true},
		{"top series to brand", topSeries, brand, true},
		{"top series to series", topSeries, series, false},
		{"series to series", series, series, true},
		{"series to top series", series, topSeries, false},
		{"series to brand", series, brand, false},
		{"brand to brand", brand, brand, true},
		{"brand to top series", brand, topSeries, true},
		{"brand to episode", brand, episode, false},
		{"episode to episode", episode, episode, true},
	}
	f := Hierarchy()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if keep, reason := f.Apply(tt.candidate, tt.subject); keep != tt.keep {
				t.Fatalf("keep = %v (%s), want %v", keep, reason, tt.keep)
			}
		})
	}
}

func TestDummyContainer(t *testing.T) {
	empty := model.Content{URI: "empty", Kind: model.KindBrand}
	full := model.Content{URI: "full", Kind: model.KindBrand, Children: []model.Ref{{URI: "ep"}}}
	f := DummyContainer()
	if keep, _ := f.Apply(empty, full); keep {
		t.Fatal("empty candidate kept for populated subject")
	}
	if keep, _ := f.Apply(empty, empty); !keep {
		t.Fatal("empty candidate rejected for empty subject")
	}
	if keep, _ := f.Apply(full, empty); !keep {
		t.Fatal("populated candidate rejected")
	}
}

func TestAllReportsFirstRejection(t *testing.T) {
	f := All(Published(), NotSelf(), DistinctPublisher(), MediaType())
	subject := model.Content{URI: "a", Publisher: "bbc", MediaType: model.MediaVideo, Active: true}

	tests := []struct {
		name      string
		candidate model.Content
		reason    string
	}{
		{"inactive", model.Content{URI: "b", Publisher: "pa"}, "published"},
		{"self", model.Content{URI: "a", Publisher: "pa", Active: true}, "not_self"},
		{"same publisher", model.Content{URI: "b", Publisher: "bbc", Active: true}, "distinct_publisher"},
		{"audio", model.Content{URI: "b", Publisher: "pa", MediaType: model.MediaAudio, Active: true}, "media_type"},
		{"kept", model.Content{URI: "b", Publisher: "pa", Active: true}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keep, reason := f.Apply(tt.candidate, subject)
			if tt.reason == "" {
				if !keep {
					t.Fatalf("rejected: %s", reason)
				}
				return
			}
			if keep || !strings.HasPrefix(reason, tt.reason+":") {
				t.Fatalf("keep=%v reason=%q, want rejection by %s", keep, reason, tt.reason)
			}
		})
	}
}

func TestRunKeepsOrder(t *testing.T) {
	subject := film("a", "bbc", 2016)
	kept, removed, tr := Run(All(DistinctPublisher(), FilmYear(config.FilmFilter{YearTolerance: 1})), subject, []model.Content{
		film("c", "pa", 2016),
		film("d", "bbc", 2016),
		film("e", "pa", 2014),
		film("b", "pa", 0),
	})
	if len(kept) != 2 || kept[0].URI != "c" || kept[1].URI != "b" {
		t.Fatalf("kept = %v", kept)
	}
	if len(removed) != 2 || removed["e"] == "" || removed["d"] == "" {
		t.Fatalf("removed = %v", removed)
	}
	if len(tr.Lines) != 3 {
		t.Fatalf("trace = %v", tr.Lines)
	}
}
