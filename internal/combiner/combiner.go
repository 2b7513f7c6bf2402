package combiner

import (
	"fmt"
	"slices"
	"strings"

	"equiv/internal/config"
	"equiv/internal/model"
	"equiv/internal/results"
	"equiv/internal/score"
	"equiv/internal/services"
	"equiv/internal/trace"
)

// Mode selects how real source scores are folded together.
type Mode string

const (
	ModeSum Mode = "sum"
	ModeMax Mode = "max"
)

// Combiner decides which candidates are strong matches.
type Combiner[T model.Entity] struct {
	cfg  config.Combiner
	mode Mode
}

// New validates cfg and builds a combiner.
func New[T model.Entity](cfg config.Combiner) (*Combiner[T], error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(cfg.Mode)))
	switch mode {
	case ModeSum, ModeMax:
	default:
		return nil, services.Wrap(services.ErrConfiguration, "combiner", "new", fmt.Sprintf("unsupported mode %q", cfg.Mode), nil)
	}
	return &Combiner[T]{cfg: cfg, mode: mode}, nil
}

// Combine scores every survivor against every source. Sources that are not
// in sets count as Null; sets sharing a source name are merged with Add.
func (c *Combiner[T]) Combine(name string, sets []score.Candidates[T], survivors []T) (results.Table, trace.Node) {
	tr := trace.New("combiner " + string(c.mode))
	sources := make([]string, 0, len(sets))
	for _, set := range sets {
		if !slices.Contains(sources, set.Source()) {
			sources = append(sources, set.Source())
		}
	}
	slices.Sort(sources)

	ordered := slices.Clone(survivors)
	slices.SortStableFunc(ordered, func(a, b T) int {
		return strings.Compare(a.CanonicalURI(), b.CanonicalURI())
	})
	ordered = slices.CompactFunc(ordered, func(a, b T) bool {
		return a.CanonicalURI() == b.CanonicalURI()
	})

	rows := make([]results.Row, 0, len(ordered))
	for _, candidate := range ordered {
		uri := candidate.CanonicalURI()
		scores := make([]score.Score, len(sources))
		for _, set := range sets {
			s, ok := set.Score(uri)
			if !ok {
				continue
			}
			i := slices.Index(sources, set.Source())
			scores[i] = scores[i].Add(s)
		}
		combined, strong := c.combine(sources, scores)
		rows = append(rows, results.Row{
			Candidate: candidate.Ref(),
			Title:     candidate.Label(),
			Scores:    scores,
			Combined:  combined,
			Strong:    strong,
		})
		tr.Linef("%s: %s strong=%t", uri, combined, strong)
	}
	if c.cfg.OnePerPublisher {
		for _, uri := range c.onePerPublisher(rows) {
			tr.Linef("%s: strong flag dropped, better match from the same publisher", uri)
		}
	}
	tr.Linef("%d candidates, %d strong, threshold %g", len(rows), countStrong(rows), c.cfg.StrongThreshold)
	return results.Table{Name: name, Sources: sources, Rows: rows}, tr.Node()
}

func (c *Combiner[T]) combine(sources []string, scores []score.Score) (score.Score, bool) {
	combined := score.Null
	satisfied := true
	for i, source := range sources {
		s := scores[i]
		if slices.Contains(c.cfg.Required, source) {
			if s.IsNaN() {
				return score.NaN, false
			}
			if !s.IsReal() {
				satisfied = false
			}
		}
		if !s.IsReal() {
			continue
		}
		weighted := s.Scale(c.cfg.Weight(source))
		switch c.mode {
		case ModeMax:
			combined = score.Max(combined, weighted)
		default:
			combined = combined.Add(weighted)
		}
	}
	for _, required := range c.cfg.Required {
		if !slices.Contains(sources, required) {
			satisfied = false
		}
	}
	return combined, satisfied && combined.AtLeast(c.cfg.StrongThreshold)
}

// onePerPublisher keeps the strong flag only on the best row of each
// publisher. Rows are in URI order, so ties keep the smallest URI. It returns
// the URIs that lost the flag.
func (c *Combiner[T]) onePerPublisher(rows []results.Row) []string {
	best := make(map[string]int)
	for i, row := range rows {
		if !row.Strong {
			continue
		}
		pub := row.Candidate.Publisher
		j, ok := best[pub]
		if !ok || row.Combined.Better(rows[j].Combined) {
			best[pub] = i
		}
	}
	var dropped []string
	for i := range rows {
		if rows[i].Strong && best[rows[i].Candidate.Publisher] != i {
			rows[i].Strong = false
			dropped = append(dropped, rows[i].Candidate.URI)
		}
	}
	return dropped
}

func countStrong(rows []results.Row) int {
	n := 0
	for _, row := range rows {
		if row.Strong {
			n++
		}
	}
	return n
}
