package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/deckflow/internal/common"
)

// DefaultTimezone is the reference zone for processed timestamps, so rows
// carry the same wall clock no matter where ingestion runs.
const DefaultTimezone = "America/Chicago"

// Settings are the runtime options shared by every command.
type Settings struct {
	DatabasePath    string
	Env             string
	Root            string
	Flavor          string
	ForecastVersion string
	Timezone        string
	FlavorsFile     string
	Workers         int
}

// LoadSettings reads settings from Viper (config file, DECKFLOW_ env vars and
// bound flags), falling back to defaults.
func LoadSettings() (*Settings, error) {
	s := &Settings{
		DatabasePath:    ExpandPath(viper.GetString("database.path")),
		Env:             strings.TrimSpace(viper.GetString("env")),
		Root:            ExpandPath(viper.GetString("root")),
		Flavor:          viper.GetString("flavor"),
		ForecastVersion: viper.GetString("forecast_version"),
		Timezone:        viper.GetString("timezone"),
		FlavorsFile:     ExpandPath(viper.GetString("flavors_file")),
		Workers:         viper.GetInt("workers"),
	}

	if s.DatabasePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		s.DatabasePath = filepath.Join(home, ".local", "share", "deckflow", "deckflow.db")
	}
	if s.Env == "" {
		s.Env = DevEnv
	}
	if s.Timezone == "" {
		s.Timezone = DefaultTimezone
	}
	if s.Workers <= 0 {
		s.Workers = runtime.NumCPU()
	}

	if _, err := s.Location(); err != nil {
		return nil, err
	}
	return s, nil
}

// Location resolves the configured time zone.
func (s *Settings) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", common.ErrInvalidConfig, s.Timezone, err)
	}
	return loc, nil
}

// RequireRoot returns the root directory or a configuration error.
func (s *Settings) RequireRoot() (string, error) {
	if s.Root == "" {
		return "", fmt.Errorf("%w: root directory (set --root or DECKFLOW_ROOT)", common.ErrMissingConfig)
	}
	return s.Root, nil
}
