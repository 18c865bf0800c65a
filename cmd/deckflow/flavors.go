package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/deckflow/internal/cli"
	"github.com/Veraticus/deckflow/internal/config"
	"github.com/Veraticus/deckflow/internal/common"
)

func flavorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flavors",
		Short: "List the known spreadsheet flavors",
		Long: `List every flavor deckflow knows: the built-in ones plus any defined in
--flavors-file. Use --yaml to print the definitions in the flavors-file
format as a starting point for a custom flavor.`,
		Args: cobra.NoArgs,
		RunE: runFlavors,
	}

	cmd.Flags().Bool("yaml", false, "print the flavor definitions as YAML")

	return cmd
}

func runFlavors(cmd *cobra.Command, _ []string) error {
	asYAML, _ := cmd.Flags().GetBool("yaml")
	out := cmd.OutOrStdout()

	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}
	reg, err := config.LoadRegistry(settings.FlavorsFile)
	if err != nil {
		return common.NewUserError("Could not load flavor definitions", err)
	}

	if asYAML {
		data, err := reg.Dump()
		if err != nil {
			return err
		}
		_, _ = out.Write(data)
		return nil
	}

	_, _ = fmt.Fprint(out, cli.RenderFlavors(reg.All(), settings.Env))
	return nil
}
