package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var showTrace bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "update <uri>",
		Short: "Re-resolve one subject now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.newManager()
			if err != nil {
				return err
			}
			defer manager.Close()

			report, err := manager.Update(cmd.Context(), args[0], dryRun)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, report.Result)
			}
			out := cmd.OutOrStdout()
			var recorded time.Time
			if !dryRun {
				recorded = report.Outcome.RecordedAt
			}
			writeResult(out, report.Result, recorded, showTrace)
			if dryRun {
				fmt.Fprintln(out, "Dry run: nothing was persisted")
			} else {
				fmt.Fprintf(out, "Stored result %d; %d lookup entries written\n", report.Outcome.ResultID, report.Outcome.EntriesWritten)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Evaluate without storing the result or changing the graph")
	cmd.Flags().BoolVar(&showTrace, "trace", false, "Print the decision trace")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the result as JSON")
	return cmd
}
