package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"equiv/internal/workflow"
)

func (c *commandContext) newManager() (*workflow.Manager, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := c.openStore()
	if err != nil {
		return nil, err
	}
	return workflow.NewManager(cfg, db, logger)
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var pipeline string
	var once bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run pipelines on their configured intervals",
		Long: "Run every enabled pipeline in the foreground until interrupted.\n" +
			"With --once each pipeline (or only --pipeline) makes a single pass and the command exits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			manager, err := ctx.newManager()
			if err != nil {
				return err
			}
			defer manager.Close()

			if !once {
				if err := manager.Start(signalCtx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Running pipelines: %s\n", strings.Join(manager.Pipelines(), ", "))
				<-signalCtx.Done()
				manager.Stop()
				return nil
			}

			var summaries []workflow.PassSummary
			if name := strings.TrimSpace(pipeline); name != "" {
				summary, err := manager.RunPass(signalCtx, name)
				summaries = append(summaries, summary)
				if err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
			} else {
				summaries, err = manager.RunAll(signalCtx)
				if err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderPassSummaries(summaries))
			return nil
		},
	}
	cmd.Flags().StringVarP(&pipeline, "pipeline", "p", "", "Only run the named pipeline (with --once)")
	cmd.Flags().BoolVar(&once, "once", false, "Make a single pass and exit")
	return cmd
}

func renderPassSummaries(summaries []workflow.PassSummary) string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		state := "complete"
		switch {
		case s.Skipped:
			state = "skipped (locked)"
		case s.Cancelled:
			state = "cancelled"
		}
		rows = append(rows, []string{
			s.Pipeline,
			state,
			fmt.Sprintf("%d", s.Subjects),
			fmt.Sprintf("%d", s.Succeeded),
			fmt.Sprintf("%d", s.Failed),
			fmt.Sprintf("%d", s.Strong),
			fmt.Sprintf("%d", s.EntriesWritten),
			s.Finished.Sub(s.Started).Round(time.Millisecond).String(),
		})
	}
	return renderTable(
		[]string{"Pipeline", "State", "Subjects", "OK", "Failed", "Strong", "Entries", "Duration"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	)
}
