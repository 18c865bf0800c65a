package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/deckflow/internal/cli"
	"github.com/Veraticus/deckflow/internal/config"
	"github.com/Veraticus/deckflow/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date",
		Args:  cobra.NoArgs,
		RunE:  runMigrate,
	}

	cmd.Flags().Bool("status", false, "show the schema version without migrating")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	statusOnly, _ := cmd.Flags().GetBool("status")
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	store, err := storage.NewSQLiteStorage(settings.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	version, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if statusOnly || version >= storage.ExpectedSchemaVersion {
		_, _ = fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Schema version %d (current %d) at %s",
			version, storage.ExpectedSchemaVersion, settings.DatabasePath)))
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	_, _ = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Migrated %s from version %d to %d",
		settings.DatabasePath, version, storage.ExpectedSchemaVersion)))
	return nil
}
