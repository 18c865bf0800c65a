package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/deckflow/internal/cli"
)

func catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the files loaded into the flavor's tables",
		Long: `Show every file_desc present in the flavor's wide and long tables, with its
file date and row count. A file listed in one table but not the other points
at a load that was interrupted outside deckflow.`,
		Args: cobra.NoArgs,
		RunE: runCatalog,
	}
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	tables := s.engine.Tables()
	for _, table := range []string{tables.Wide, tables.Long} {
		entries, err := s.store.CatalogSummary(ctx, table)
		if err != nil {
			return fmt.Errorf("failed to read catalog of %s: %w", table, err)
		}
		_, _ = fmt.Fprint(out, cli.RenderCatalog(table, entries))
	}
	return nil
}
