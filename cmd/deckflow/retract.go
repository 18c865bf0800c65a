package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/deckflow/internal/cli"
)

func retractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retract FILE_DESC...",
		Short: "Remove the rows of files from every table of the flavor",
		Long: `Delete every row whose file_desc matches one of the arguments from the
flavor's wide and long tables, in a single transaction. Every retraction is
written to the reconciliation log.`,
		RunE: runRetract,
	}

	cmd.Flags().Bool("log", false, "show the reconciliation log instead of retracting")
	cmd.Flags().Int("limit", 50, "entries to show with --log")

	return cmd
}

func runRetract(cmd *cobra.Command, args []string) error {
	showLog, _ := cmd.Flags().GetBool("log")
	limit, _ := cmd.Flags().GetInt("limit")
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if showLog {
		entries, err := s.store.ReconciliationLog(ctx, limit)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(out, cli.RenderReconciliation(entries))
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("at least one file_desc is required")
	}

	n, err := s.engine.RetractDescs(ctx, args)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Retracted %d row(s) for %d file(s)", n, len(args))))
	return nil
}
