package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/deckflow/internal/catalog"
	"github.com/Veraticus/deckflow/internal/cli"
	"github.com/Veraticus/deckflow/internal/common"
	"github.com/Veraticus/deckflow/internal/engine"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Load new workbooks and retract deleted ones",
		Long: `Scan the deck directory once, load every workbook the tables have not
seen, then remove the rows of every workbook that is no longer on disk.

The plan is printed before anything is written. Files that fail to load stay
uncataloged and are retried by the next sync.`,
		RunE: runSync,
	}

	cmd.Flags().Bool("dry-run", false, "print the plan without loading or retracting")
	cmd.Flags().Bool("no-retract", false, "load new files but leave deleted files in the tables")
	cmd.Flags().Bool("no-progress", false, "disable the progress bar")

	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noRetract, _ := cmd.Flags().GetBool("no-retract")
	noProgress, _ := cmd.Flags().GetBool("no-progress")
	out := cmd.OutOrStdout()

	handler := cli.NewInterruptHandler(out)
	ctx := handler.HandleInterrupts(cmd.Context(), "Loaded files are kept. Run deckflow sync again to finish.")

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	root, err := s.settings.RequireRoot()
	if err != nil {
		return common.NewUserError("No deck directory configured", err)
	}

	var progress *cli.Progress
	opts := engine.SyncOptions{
		DryRun:    dryRun,
		NoRetract: noRetract,
		OnPlan: func(plan *catalog.Plan) {
			_, _ = fmt.Fprint(out, cli.RenderPlan(plan))
			if !dryRun && !noProgress && len(plan.New) > 0 {
				progress = cli.NewProgress(out, len(plan.New), "Loading workbooks...")
			}
		},
		OnFileDone: func(r engine.FileResult) {
			if progress != nil {
				progress.Done(r.Err != nil)
			}
		},
	}

	summary, err := s.engine.Sync(ctx, root, opts)
	if err != nil {
		return err
	}
	if dryRun {
		_, _ = fmt.Fprintln(out, cli.FormatInfo("Dry run: nothing was written."))
		return nil
	}

	_, _ = fmt.Fprint(out, cli.RenderSync(summary))
	if n := summary.Ingest.Failed; n > 0 {
		return common.NewUserError(fmt.Sprintf("%d file(s) failed to load", n), nil)
	}
	return nil
}
