package results

import (
	"equiv/internal/model"
	"equiv/internal/score"
	"equiv/internal/trace"
)

// Row is one candidate's line in a result table. Scores align with the
// table's Sources.
type Row struct {
	Candidate model.Ref     `json:"candidate"`
	Title     string        `json:"title,omitempty"`
	Scores    []score.Score `json:"scores"`
	Combined  score.Score   `json:"combined"`
	Strong    bool          `json:"strong"`
}

// Score returns the row's score from source.
func (r Row) Score(sources []string, source string) score.Score {
	for i, s := range sources {
		if s == source && i < len(r.Scores) {
			return r.Scores[i]
		}
	}
	return score.Null
}

// Table is the output of one combiner pass.
type Table struct {
	Name    string   `json:"name"`
	Sources []string `json:"sources"`
	Rows    []Row    `json:"rows"`
}

// Strong lists the candidates flagged strong.
func (t Table) Strong() []model.Ref {
	var out []model.Ref
	for _, row := range t.Rows {
		if row.Strong {
			out = append(out, row.Candidate)
		}
	}
	return out
}

// Result is the immutable outcome of one pipeline run for one subject.
type Result struct {
	Subject  model.Ref  `json:"subject"`
	Title    string     `json:"title"`
	Kind     string     `json:"kind"`
	Pipeline string     `json:"pipeline,omitempty"`
	Tables   []Table    `json:"tables"`
	Trace    trace.Node `json:"trace"`
}

// Strong is the union of strong candidates across tables, deduplicated by
// URI in first-seen order.
func (r Result) Strong() []model.Ref {
	seen := make(map[string]bool)
	var out []model.Ref
	for _, t := range r.Tables {
		for _, ref := range t.Strong() {
			if seen[ref.URI] {
				continue
			}
			seen[ref.URI] = true
			out = append(out, ref)
		}
	}
	return out
}
