package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"equiv/internal/catalog"
	"equiv/internal/lookup"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the local content catalog",
	}
	catalogCmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Import channels and content from a JSON catalog document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			db, err := ctx.openStore()
			if err != nil {
				return err
			}
			stats, err := catalog.New(db, logger).ImportFile(cmd.Context(), lookup.NewStore(db), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d content records (%d inactive), %d broadcasts, %d channels\n",
				stats.Content, stats.Inactive, stats.Broadcasts, stats.Channels)
			return nil
		},
	})
	return catalogCmd
}
