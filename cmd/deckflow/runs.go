package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/deckflow/internal/cli"
	"github.com/Veraticus/deckflow/internal/model"
	"github.com/Veraticus/deckflow/internal/service"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show the ingest run log",
		Args:  cobra.NoArgs,
		RunE:  runRuns,
	}

	cmd.Flags().Int("limit", 20, "maximum runs to show")
	cmd.Flags().String("status", "", "only show runs with this status (running, succeeded, failed)")
	cmd.Flags().String("file", "", "only show runs for this file_desc")
	cmd.Flags().Bool("all-flavors", false, "include runs of every flavor")
	cmd.Flags().Bool("retractions", false, "show the reconciliation log instead")

	return cmd
}

func runRuns(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	status, _ := cmd.Flags().GetString("status")
	file, _ := cmd.Flags().GetString("file")
	allFlavors, _ := cmd.Flags().GetBool("all-flavors")
	retractions, _ := cmd.Flags().GetBool("retractions")
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch model.RunStatus(status) {
	case "", model.StatusRunning, model.StatusSucceeded, model.StatusFailed:
	default:
		return fmt.Errorf("unknown status %q", status)
	}

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if retractions {
		entries, err := s.store.ReconciliationLog(ctx, limit)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(out, cli.RenderReconciliation(entries))
		return nil
	}

	filter := service.RunFilter{
		FileDesc: file,
		Status:   model.RunStatus(status),
		Limit:    limit,
	}
	if !allFlavors {
		filter.Flavor = s.engine.Flavor().Name
	}

	runs, err := s.store.ListRuns(ctx, filter)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(out, cli.RenderRuns(runs))
	return nil
}
