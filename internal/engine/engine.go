// Package engine runs the deck pipeline: it plans a sync from a catalog
// snapshot, loads new files through the normalizer into storage and
// retracts files that left the disk.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/Veraticus/deckflow/internal/catalog"
	"github.com/Veraticus/deckflow/internal/common"
	"github.com/Veraticus/deckflow/internal/config"
	"github.com/Veraticus/deckflow/internal/reshape"
	"github.com/Veraticus/deckflow/internal/service"
	"github.com/Veraticus/deckflow/internal/spreadsheet"
)

// Engine orchestrates ingestion and reconciliation for one flavor and env.
type Engine struct {
	storage         service.Storage
	normalizer      *reshape.Normalizer
	read            ReadFunc
	flavor          config.Flavor
	tables          config.TableSet
	env             string
	forecastVersion string
	workers         int

	mu     sync.Mutex
	failed map[string]time.Time
}

// Config holds configuration options for the engine.
type Config struct {
	Location        *time.Location
	Read            ReadFunc
	Flavor          config.Flavor
	Env             string
	ForecastVersion string
	Workers         int
}

// New creates an engine for cfg.Flavor writing to the tables selected by
// cfg.Env.
func New(storage service.Storage, cfg Config) (*Engine, error) {
	if err := cfg.Flavor.Validate(); err != nil {
		return nil, err
	}
	normalizer, err := reshape.NewNormalizer(cfg.Flavor, cfg.Location)
	if err != nil {
		return nil, err
	}
	if cfg.Env == "" {
		cfg.Env = config.DevEnv
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Read == nil {
		cfg.Read = spreadsheet.ReadFile
	}

	return &Engine{
		storage:         storage,
		normalizer:      normalizer,
		read:            cfg.Read,
		flavor:          cfg.Flavor,
		tables:          cfg.Flavor.TablesFor(cfg.Env),
		env:             cfg.Env,
		forecastVersion: cfg.ForecastVersion,
		workers:         cfg.Workers,
		failed:          make(map[string]time.Time),
	}, nil
}

// Tables returns the tables the engine writes to.
func (e *Engine) Tables() config.TableSet {
	return e.tables
}

// Flavor returns the engine's flavor.
func (e *Engine) Flavor() config.Flavor {
	return e.flavor
}

// SetClock replaces the clock used for processed timestamps.
func (e *Engine) SetClock(now func() time.Time) {
	e.normalizer.SetClock(now)
}

// Plan takes one snapshot of root and diffs it against the files already in
// the long table. New and deleted files come from that same snapshot.
func (e *Engine) Plan(ctx context.Context, root string) (*catalog.Plan, error) {
	snap, err := catalog.Scan(ctx, root, catalog.ScanOptions{Match: e.flavor.MatchesExtension})
	if err != nil {
		return nil, common.NewUserError("Could not list the deck directory", err)
	}

	descs, exists, err := e.storage.CatalogedFiles(ctx, e.tables.Long)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog of %s: %w", e.tables.Long, err)
	}

	var cataloged catalog.Cataloged
	if exists {
		cataloged = catalog.NewCataloged(descs)
	}

	plan := catalog.Diff(snap, cataloged)
	e.holdFailed(plan)
	slog.Info("Planned sync",
		"root", snap.Root,
		"flavor", e.flavor.Name,
		"table", e.tables.Long,
		"files", len(snap.Files),
		"new", len(plan.New),
		"deleted", len(plan.Deleted),
		"held", len(plan.Held),
		"bootstrap", plan.Bootstrap)
	return plan, nil
}

// holdFailed moves new files whose last load failed on their content, and
// whose modification time is unchanged since, from plan.New to plan.Held.
func (e *Engine) holdFailed(plan *catalog.Plan) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.failed) == 0 {
		return
	}

	kept := plan.New[:0]
	for _, ref := range plan.New {
		if at, ok := e.failed[ref.RelPath]; ok && at.Equal(modTime(ref)) {
			plan.Held = append(plan.Held, ref)
			continue
		}
		kept = append(kept, ref)
	}
	plan.New = kept
}

// recordOutcome remembers a file that failed on its content so later plans
// hold it until it changes. Timeouts and storage errors are not remembered.
func (e *Engine) recordOutcome(ref catalog.FileRef, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil && common.IsFileError(err) && !errors.Is(err, common.ErrIngestTimeout) {
		e.failed[ref.RelPath] = modTime(ref)
		return
	}
	delete(e.failed, ref.RelPath)
}

func modTime(ref catalog.FileRef) time.Time {
	info, err := os.Stat(ref.Path())
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
