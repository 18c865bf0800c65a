package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata" // processed timestamps need America/Chicago on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/deckflow/internal/common"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "deckflow",
		Short: "🛢️  Price deck ingestion",
		Long: `deckflow keeps a set of price deck tables in step with a directory of
spreadsheets. New workbooks are normalized and appended, workbooks that
disappear from disk are retracted.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/deckflow/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("db", "", "database path (default: ~/.local/share/deckflow/deckflow.db)")
	rootCmd.PersistentFlags().String("env", "", "target environment; dev prefixes table names with dev_ (default: dev)")
	rootCmd.PersistentFlags().String("flavor", "HSM", "spreadsheet flavor (see 'deckflow flavors')")
	rootCmd.PersistentFlags().String("flavors-file", "", "YAML file overriding or adding flavors")
	rootCmd.PersistentFlags().String("timezone", "", "time zone for processed timestamps (default: America/Chicago)")
	rootCmd.PersistentFlags().String("root", "", "directory holding the deck workbooks")
	rootCmd.PersistentFlags().String("forecast-version", "", "forecast version stamped on loaded rows")
	rootCmd.PersistentFlags().Int("workers", 0, "files loaded in parallel (default: number of CPUs)")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("env", rootCmd.PersistentFlags().Lookup("env"))
	_ = viper.BindPFlag("flavor", rootCmd.PersistentFlags().Lookup("flavor"))
	_ = viper.BindPFlag("flavors_file", rootCmd.PersistentFlags().Lookup("flavors-file"))
	_ = viper.BindPFlag("timezone", rootCmd.PersistentFlags().Lookup("timezone"))
	_ = viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	_ = viper.BindPFlag("forecast_version", rootCmd.PersistentFlags().Lookup("forecast-version"))
	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))

	// Add commands
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(retractCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(runsCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(flavorsCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel() // Always cleanup

	if err != nil {
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, userErr.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	// A .env in the working directory seeds DECKFLOW_* variables; real
	// environment variables win.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	}

	// Set up config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		// Search for config in standard locations
		viper.AddConfigPath(fmt.Sprintf("%s/.config/deckflow", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("DECKFLOW")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// Set up logging
	if err := setupLogging(); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func setupLogging() error {
	level, err := common.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return err
	}
	return common.SetupLogger(level, viper.GetString("logging.format"))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deckflow %s\n", version)
		},
	}
}
