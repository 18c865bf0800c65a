package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/deckflow/internal/common"
	"github.com/Veraticus/deckflow/internal/config"
	"github.com/Veraticus/deckflow/internal/engine"
	"github.com/Veraticus/deckflow/internal/storage"
)

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context, settings *config.Settings) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(settings.DatabasePath)
	if err != nil {
		return nil, common.NewUserError("Could not open the database at "+settings.DatabasePath, err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// loadFlavor resolves the configured flavor, applying any flavors file.
func loadFlavor(settings *config.Settings) (config.Flavor, error) {
	reg, err := config.LoadRegistry(settings.FlavorsFile)
	if err != nil {
		return config.Flavor{}, common.NewUserError("Could not load flavor definitions", err)
	}
	flavor, err := reg.Lookup(settings.Flavor)
	if err != nil {
		return config.Flavor{}, common.NewUserError("Unknown flavor", err)
	}
	return flavor, nil
}

// session bundles what most commands need: settings, an open store and an
// engine for the configured flavor.
type session struct {
	settings *config.Settings
	store    *storage.SQLiteStorage
	engine   *engine.Engine
}

func openSession(ctx context.Context) (*session, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}
	flavor, err := loadFlavor(settings)
	if err != nil {
		return nil, err
	}
	loc, err := settings.Location()
	if err != nil {
		return nil, err
	}

	store, err := initStorage(ctx, settings)
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(store, engine.Config{
		Flavor:          flavor,
		Env:             settings.Env,
		ForecastVersion: settings.ForecastVersion,
		Location:        loc,
		Workers:         settings.Workers,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	slog.Debug("Session ready",
		"database", settings.DatabasePath,
		"flavor", flavor.Name,
		"env", settings.Env,
		"tables", eng.Tables().All())
	return &session{settings: settings, store: store, engine: eng}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}
