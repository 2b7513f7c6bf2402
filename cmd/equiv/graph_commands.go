package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"equiv/internal/lookup"
)

func (c *commandContext) lookupStore() (*lookup.Store, error) {
	db, err := c.openStore()
	if err != nil {
		return nil, err
	}
	return lookup.NewStore(db), nil
}

func newGraphCommand(ctx *commandContext) *cobra.Command {
	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Inspect and correct the lookup graph",
	}
	graphCmd.AddCommand(newGraphShowCommand(ctx))
	graphCmd.AddCommand(newManualEdgeCommand(ctx, "explicit", "operator-asserted equivalence",
		(*lookup.ManualService).AddExplicit, (*lookup.ManualService).RemoveExplicit))
	graphCmd.AddCommand(newManualEdgeCommand(ctx, "blacklist", "forbidden equivalence",
		(*lookup.ManualService).AddBlacklist, (*lookup.ManualService).RemoveBlacklist))
	return graphCmd
}

func newGraphShowCommand(ctx *commandContext) *cobra.Command {
	var minEdges int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <uri|id>",
		Short: "Show the neighbourhood of a lookup entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			graphStore, err := ctx.lookupStore()
			if err != nil {
				return err
			}
			graph, err := lookup.NewQueryService(graphStore).Neighbourhood(cmd.Context(), args[0], minEdges)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, graph)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Subject: %s (id %d, %s)\n", graph.Subject.Ref.URI, graph.Subject.Ref.ID, graph.Subject.Ref.Publisher)
			if len(graph.Nodes) == 0 {
				fmt.Fprintln(out, "No linked entries")
				return nil
			}
			rows := make([][]string, 0, len(graph.Nodes))
			for _, n := range graph.Nodes {
				classes := make([]string, 0, len(n.Classes))
				for _, c := range n.Classes {
					classes = append(classes, string(c))
				}
				rows = append(rows, []string{
					fmt.Sprintf("%d", n.Ref.ID),
					n.Ref.URI,
					n.Ref.Publisher,
					n.Kind,
					yesNo(n.Active),
					strings.Join(classes, ", "),
					fmt.Sprintf("%d", n.Edges),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "URI", "Publisher", "Kind", "Active", "Relation", "Edges"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVar(&minEdges, "min-edges", 0, "Hide entries with fewer linked entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the neighbourhood as JSON")
	return cmd
}

type manualEdgeFunc func(*lookup.ManualService, context.Context, string, string) error

func newManualEdgeCommand(ctx *commandContext, name, description string, add, remove manualEdgeFunc) *cobra.Command {
	parent := &cobra.Command{
		Use:   name,
		Short: "Manage " + description + " edges",
	}
	for _, action := range []struct {
		verb string
		fn   manualEdgeFunc
	}{{"add", add}, {"remove", remove}} {
		parent.AddCommand(&cobra.Command{
			Use:   action.verb + " <uri|id> <uri|id>",
			Short: strings.ToUpper(action.verb[:1]) + action.verb[1:] + " a " + description,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				logger, err := ctx.ensureLogger()
				if err != nil {
					return err
				}
				graphStore, err := ctx.lookupStore()
				if err != nil {
					return err
				}
				svc := lookup.NewManualService(graphStore, cfg.Workflow.ConflictRetries, logger)
				if err := action.fn(svc, cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s edge %s <-> %s\n", pastTense(action.verb), name, args[0], args[1])
				return nil
			},
		})
	}
	return parent
}

func pastTense(verb string) string {
	if verb == "add" {
		return "Added"
	}
	return "Removed"
}
