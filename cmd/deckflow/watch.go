package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/deckflow/internal/cli"
	"github.com/Veraticus/deckflow/internal/common"
	"github.com/Veraticus/deckflow/internal/engine"
)

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Sync continuously as workbooks are added or removed",
		Long: `Run a sync, then watch the deck directory and sync again whenever it has
been quiet for --debounce after a change. Stop with Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}

	cmd.Flags().Duration("debounce", engine.DefaultDebounce, "quiet period before a change triggers a sync")
	cmd.Flags().Bool("no-retract", false, "never retract deleted files")

	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	debounce, _ := cmd.Flags().GetDuration("debounce")
	noRetract, _ := cmd.Flags().GetBool("no-retract")
	out := cmd.OutOrStdout()

	handler := cli.NewInterruptHandler(out)
	ctx := handler.HandleInterrupts(cmd.Context(), "")

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	root, err := s.settings.RequireRoot()
	if err != nil {
		return common.NewUserError("No deck directory configured", err)
	}

	sync := func(ctx context.Context) error {
		summary, err := s.engine.Sync(ctx, root, engine.SyncOptions{NoRetract: noRetract})
		if err != nil {
			return err
		}
		if !summary.Plan.Empty() {
			_, _ = fmt.Fprint(out, cli.RenderSync(summary))
		}
		return nil
	}

	if err := sync(ctx); err != nil {
		return err
	}

	w, err := engine.NewWatcher(root, debounce, sync)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Watching %s for %s workbooks", root, s.engine.Flavor().Name)))
	return w.Run(ctx)
}
