package model

// Channel is one publisher's view of a broadcast channel. Equivalents lists
// the same logical channel as published by others.
type Channel struct {
	ID          int64  `json:"id,omitempty"`
	URI         string `json:"uri"`
	Title       string `json:"title"`
	Publisher   string `json:"publisher"`
	Equivalents []Ref  `json:"equivalents,omitempty"`
}

// EquivalentURIs returns the channel URIs of equivalents published by any of
// the given publishers. An empty publisher list accepts every equivalent.
func (c Channel) EquivalentURIs(publishers []string) []string {
	allowed := make(map[string]struct{}, len(publishers))
	for _, p := range publishers {
		allowed[p] = struct{}{}
	}
	out := make([]string, 0, len(c.Equivalents))
	for _, eq := range c.Equivalents {
		if eq.URI == "" || eq.URI == c.URI {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[eq.Publisher]; !ok {
				continue
			}
		}
		out = append(out, eq.URI)
	}
	return out
}

// KindChannel is the kind name of channel subjects.
const KindChannel = "channel"

func (c Channel) CanonicalURI() string { return c.URI }

// Ref returns the lookup reference of the channel.
func (c Channel) Ref() Ref {
	return Ref{ID: c.ID, URI: c.URI, Publisher: c.Publisher}
}

func (c Channel) Label() string { return c.Title }

func (c Channel) KindName() string { return KindChannel }
