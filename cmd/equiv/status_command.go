package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"equiv/internal/preflight"
	"equiv/internal/workflow"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show readiness checks, pipeline lanes and database totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			db, err := ctx.openStore()
			if err != nil {
				return err
			}
			lanes, err := workflow.ProbeLanes(cfg)
			if err != nil {
				return err
			}
			stats, err := db.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			paint := newPainter(out)

			checks := preflight.RunAll(cmd.Context(), cfg, db)
			rows := make([][]string, 0, len(checks))
			for _, r := range checks {
				result := paint.state("ok", text.FgGreen)
				if !r.Passed {
					result = paint.state("fail", text.FgRed)
				}
				rows = append(rows, []string{r.Name, result, r.Detail})
			}
			fmt.Fprintln(out, "Readiness")
			fmt.Fprintln(out, renderTable([]string{"Check", "Result", "Detail"}, rows, nil))

			fmt.Fprintln(out, "\nPipelines")
			if len(lanes) == 0 {
				fmt.Fprintln(out, "  none configured")
			} else {
				rows = rows[:0]
				for _, l := range lanes {
					rows = append(rows, []string{
						l.Name,
						paint.lane(l.State),
						l.Publisher,
						strings.Join(l.Kinds, "/"),
						l.Interval,
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Pipeline", "State", "Publisher", "Kinds", "Interval"}, rows, nil))
			}

			fmt.Fprintln(out, "\nDatabase")
			fmt.Fprintln(out, renderTable([]string{"Table", "Rows"}, [][]string{
				{"Content", strconv.Itoa(stats.Content)},
				{"Channels", strconv.Itoa(stats.Channels)},
				{"Lookup entries", strconv.Itoa(stats.LookupEntries)},
				{"Results", strconv.Itoa(stats.Results)},
			}, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}

// painter colours state words when writing to a terminal.
type painter struct {
	enabled bool
}

func newPainter(w io.Writer) painter {
	file, ok := w.(*os.File)
	if !ok {
		return painter{}
	}
	fd := file.Fd()
	return painter{enabled: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)}
}

func (p painter) state(word string, color text.Color) string {
	if !p.enabled {
		return word
	}
	return color.Sprint(word)
}

func (p painter) lane(state workflow.LaneState) string {
	switch state {
	case workflow.LaneRunning:
		return p.state(string(state), text.FgGreen)
	case workflow.LaneSkipped:
		return p.state(string(state), text.FgYellow)
	case workflow.LaneDisabled:
		return p.state(string(state), text.FgHiBlack)
	default:
		return p.state(string(state), text.FgBlue)
	}
}
