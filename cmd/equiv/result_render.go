package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"equiv/internal/results"
)

func writeResult(w io.Writer, res results.Result, recordedAt time.Time, showTrace bool) {
	fmt.Fprintf(w, "Subject:  %s (%s, %s)\n", res.Subject.URI, res.Title, res.Kind)
	fmt.Fprintf(w, "Pipeline: %s\n", res.Pipeline)
	if !recordedAt.IsZero() {
		fmt.Fprintf(w, "Recorded: %s\n", recordedAt.Local().Format(time.DateTime))
	}
	for _, table := range res.Tables {
		fmt.Fprintln(w)
		if len(table.Rows) == 0 {
			fmt.Fprintf(w, "%s: no candidates\n", table.Name)
			continue
		}
		fmt.Fprintln(w, renderResultTable(table))
	}

	strong := res.Strong()
	uris := make([]string, 0, len(strong))
	for _, ref := range strong {
		uris = append(uris, ref.URI)
	}
	if len(uris) == 0 {
		fmt.Fprintln(w, "Strong:   none")
	} else {
		fmt.Fprintf(w, "Strong:   %s\n", strings.Join(uris, ", "))
	}
	if showTrace && !res.Trace.IsEmpty() {
		fmt.Fprintln(w)
		fmt.Fprint(w, res.Trace.String())
	}
}

func renderResultTable(table results.Table) string {
	headers := append([]string{"Candidate", "Title"}, table.Sources...)
	headers = append(headers, "Combined", "Strong")
	aligns := make([]columnAlignment, len(headers))
	for i := 2; i < len(headers)-1; i++ {
		aligns[i] = alignRight
	}

	rows := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		line := []string{row.Candidate.URI, row.Title}
		for _, source := range table.Sources {
			line = append(line, row.Score(table.Sources, source).String())
		}
		line = append(line, row.Combined.String(), yesNo(row.Strong))
		rows = append(rows, line)
	}
	return renderTable(headers, rows, aligns)
}

func writeRecordList(w io.Writer, records []results.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No results recorded")
		return
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			fmt.Sprintf("%d", rec.ID),
			rec.RecordedAt.Local().Format(time.DateTime),
			rec.Result.Subject.URI,
			rec.Result.Pipeline,
			fmt.Sprintf("%d", len(rec.Result.Strong())),
		})
	}
	fmt.Fprintln(w, renderTable([]string{"ID", "Recorded", "Subject", "Pipeline", "Strong"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight}))
}
