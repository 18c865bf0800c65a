// Package service defines the interfaces between the pipeline and its backends.
package service

import (
	"context"

	"github.com/Veraticus/deckflow/internal/config"
	"github.com/Veraticus/deckflow/internal/model"
)

// RunFilter narrows ListRuns.
type RunFilter struct {
	Flavor   string
	FileDesc string
	Status   model.RunStatus
	Limit    int
}

// Storage defines the contract for the deck tables and their bookkeeping.
type Storage interface {
	// Catalog operations. CatalogedFiles returns a nil slice and false when
	// the table does not exist yet.
	TableExists(ctx context.Context, table string) (bool, error)
	CatalogedFiles(ctx context.Context, table string) ([]string, bool, error)
	CatalogSummary(ctx context.Context, table string) ([]model.CatalogEntry, error)

	// Writes. AppendFile writes a file's wide and long rows atomically,
	// adding any value columns the wide table does not have yet.
	AppendFile(ctx context.Context, tables config.TableSet, wide *model.WideTable, long []model.LongRow) error

	// Retract deletes every row whose column matches one of values from
	// each table, all or nothing, and returns the number of rows removed.
	Retract(ctx context.Context, tables []string, column string, values []string) (int64, error)
	ReconciliationLog(ctx context.Context, limit int) ([]model.ReconcileEntry, error)

	// Long table reads.
	LongRows(ctx context.Context, table string, fileDesc string) ([]model.LongRow, error)

	// Run log.
	StartRun(ctx context.Context, run *model.IngestRun) error
	FinishRun(ctx context.Context, run *model.IngestRun) error
	ListRuns(ctx context.Context, filter RunFilter) ([]model.IngestRun, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
