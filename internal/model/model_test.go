package model

import (
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	if k, ok := ParseKind(" Episode "); !ok || k != KindEpisode {
		t.Fatalf("ParseKind = %q, %v", k, ok)
	}
	if _, ok := ParseKind("podcast"); ok {
		t.Fatal("unexpected kind accepted")
	}
	if !KindBrand.IsContainer() || KindFilm.IsContainer() {
		t.Fatal("container classification wrong")
	}
}

func TestParentPrefersSeries(t *testing.T) {
	c := Content{
		Container: &Ref{ID: 1, URI: "brand"},
		Series:    &Ref{ID: 2, URI: "series"},
	}
	parent, ok := c.Parent()
	if !ok || parent.URI != "series" {
		t.Fatalf("Parent = %+v, %v", parent, ok)
	}
	if _, ok := (Content{}).Parent(); ok {
		t.Fatal("expected no parent")
	}
}

func TestCloneIsDeep(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	c := Content{
		Container:  &Ref{URI: "brand"},
		Broadcasts: []Broadcast{{ChannelURI: "c", Start: start, End: start.Add(time.Hour)}},
	}
	clone := c.Clone()
	clone.Container.URI = "other"
	clone.Broadcasts[0].ChannelURI = "x"
	if c.Container.URI != "brand" || c.Broadcasts[0].ChannelURI != "c" {
		t.Fatal("clone shares memory with original")
	}
}

func TestEquivalentURIsRestrictsPublishers(t *testing.T) {
	ch := Channel{
		URI: "bbc/one",
		Equivalents: []Ref{
			{URI: "pa/one", Publisher: "pa"},
			{URI: "bt/one", Publisher: "bt"},
			{URI: "bbc/one", Publisher: "bbc"},
		},
	}
	got := ch.EquivalentURIs([]string{"pa"})
	if len(got) != 1 || got[0] != "pa/one" {
		t.Fatalf("EquivalentURIs = %v", got)
	}
	if all := ch.EquivalentURIs(nil); len(all) != 2 {
		t.Fatalf("EquivalentURIs(nil) = %v", all)
	}
}

func TestChannelIsEntity(t *testing.T) {
	var e Entity = Channel{ID: 3, URI: "bbc:one", Title: "BBC One", Publisher: "bbc"}
	if e.CanonicalURI() != "bbc:one" || e.Label() != "BBC One" || e.KindName() != KindChannel {
		t.Fatalf("unexpected channel entity %q %q %q", e.CanonicalURI(), e.Label(), e.KindName())
	}
	if ref := e.Ref(); ref.ID != 3 || ref.Publisher != "bbc" {
		t.Fatalf("unexpected ref %+v", ref)
	}
}
