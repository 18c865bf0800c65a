package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/deckflow/internal/catalog"
	"github.com/Veraticus/deckflow/internal/cli"
	"github.com/Veraticus/deckflow/internal/common"
)

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest FILE",
		Short: "Load a single workbook",
		Long: `Load one workbook into the flavor's tables. The file's file_desc is its
path relative to --root; without --root it is the file name alone.

The file is loaded even if it is already cataloged, so running this twice
appends the rows twice. Use sync for incremental loads.`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	ref, err := fileRef(s.settings.Root, args[0])
	if err != nil {
		return err
	}

	res := s.engine.IngestFile(ctx, ref)
	if res.Err != nil {
		return common.NewUserError("Failed to load "+ref.RelPath, res.Err)
	}

	_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Loaded %s: %d wide rows, %d long rows into %s",
		ref.RelPath, res.WideRows, res.LongRows, s.engine.Tables().Long)))
	return nil
}

// fileRef splits path into a root and a file_desc. A path outside root is
// rejected so file_desc values stay comparable with sync.
func fileRef(root, path string) (catalog.FileRef, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return catalog.FileRef{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if root == "" {
		return catalog.FileRef{Root: filepath.Dir(abs), RelPath: filepath.Base(abs)}, nil
	}

	normRoot, err := catalog.NormalizeRoot(root)
	if err != nil {
		return catalog.FileRef{}, err
	}
	rel, err := filepath.Rel(normRoot, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return catalog.FileRef{}, common.NewUserError(fmt.Sprintf("%s is not under the deck directory %s", path, normRoot), err)
	}
	return catalog.FileRef{Root: normRoot, RelPath: filepath.ToSlash(rel)}, nil
}
