package main

import (
	"github.com/spf13/cobra"

	"equiv/internal/results"
)

func (c *commandContext) resultRepository() (*results.Repository, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	db, err := c.openStore()
	if err != nil {
		return nil, err
	}
	return results.NewRepository(db, cfg.Results.Retention), nil
}

func newResultCommand(ctx *commandContext) *cobra.Command {
	resultCmd := &cobra.Command{
		Use:   "result",
		Short: "Inspect stored pipeline results",
	}
	resultCmd.AddCommand(newResultShowCommand(ctx))
	resultCmd.AddCommand(newResultHistoryCommand(ctx))
	resultCmd.AddCommand(newResultRecentCommand(ctx))
	return resultCmd
}

func newResultShowCommand(ctx *commandContext) *cobra.Command {
	var showTrace bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <uri>",
		Short: "Show the latest result for a subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.resultRepository()
			if err != nil {
				return err
			}
			rec, err := repo.Latest(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, rec.Result)
			}
			writeResult(cmd.OutOrStdout(), rec.Result, rec.RecordedAt, showTrace)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showTrace, "trace", false, "Print the decision trace")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the result as JSON")
	return cmd
}

func newResultHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <uri>",
		Short: "List retained results for a subject, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.resultRepository()
			if err != nil {
				return err
			}
			records, err := repo.History(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			writeRecordList(cmd.OutOrStdout(), records)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum results to list")
	return cmd
}

func newResultRecentCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var kinds []string

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recent results across subjects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := ctx.resultRepository()
			if err != nil {
				return err
			}
			records, err := repo.Recent(cmd.Context(), kinds, limit)
			if err != nil {
				return err
			}
			writeRecordList(cmd.OutOrStdout(), records)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum results to list")
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "Only list subjects of these kinds")
	return cmd
}
