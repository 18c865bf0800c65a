package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/deckflow/internal/cli"
	"github.com/Veraticus/deckflow/internal/export"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the long table as CSV",
		Long: `Write the flavor's long table as CSV, one row per benchmark and period.
Use --file to limit the export to one file_desc.`,
		Args: cobra.NoArgs,
		RunE: runExport,
	}

	cmd.Flags().StringP("output", "o", "", "file to write (default: stdout)")
	cmd.Flags().String("file", "", "only export rows of this file_desc")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) (err error) {
	output, _ := cmd.Flags().GetString("output")
	file, _ := cmd.Flags().GetString("file")
	ctx := cmd.Context()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	table := s.engine.Tables().Long
	rows, err := s.store.LongRows(ctx, table, file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", table, err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close %s: %w", output, cerr)
			}
		}()
		w = f
	}

	if err := export.WriteLongCSV(w, rows); err != nil {
		return err
	}
	if output != "" {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Wrote %d rows to %s", len(rows), output)))
	}
	return nil
}
