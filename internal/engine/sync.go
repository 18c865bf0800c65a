package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/deckflow/internal/catalog"
)

// SyncOptions controls a sync run.
type SyncOptions struct {
	// OnPlan is called with the plan before anything is written.
	OnPlan func(*catalog.Plan)
	// OnFileDone is passed to Ingest.
	OnFileDone func(FileResult)
	DryRun     bool
	NoRetract  bool
}

// SyncSummary reports what a sync did.
type SyncSummary struct {
	Plan      *catalog.Plan
	Ingest    *IngestSummary
	Retracted int64
}

// Sync brings the tables in line with root: it loads every file on disk
// that is not cataloged, then retracts every cataloged file no longer on
// disk. Both lists come from one snapshot. Per-file ingest failures are
// reported in the summary; a failed retraction is returned as an error.
func (e *Engine) Sync(ctx context.Context, root string, opts SyncOptions) (*SyncSummary, error) {
	plan, err := e.Plan(ctx, root)
	if err != nil {
		return nil, err
	}
	if opts.OnPlan != nil {
		opts.OnPlan(plan)
	}

	summary := &SyncSummary{Plan: plan, Ingest: &IngestSummary{}}
	if opts.DryRun {
		return summary, nil
	}

	if len(plan.New) > 0 {
		summary.Ingest = e.Ingest(ctx, plan.New, opts.OnFileDone)
	}

	if opts.NoRetract || len(plan.Deleted) == 0 {
		return summary, nil
	}
	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("sync interrupted before retraction: %w", err)
	}

	n, err := e.Retract(ctx, plan.Deleted)
	if err != nil {
		return summary, err
	}
	summary.Retracted = n
	slog.Info("Retracted deleted files", "files", len(plan.Deleted), "rows", n)
	return summary, nil
}
