package model

import "time"

// RunStatus is the outcome of an ingest run or reconciliation entry.
type RunStatus string

// Run statuses.
const (
	StatusRunning   RunStatus = "running"
	StatusSucceeded RunStatus = "succeeded"
	StatusFailed    RunStatus = "failed"
)

// IngestRun records one attempt to load a file into a flavor's tables.
type IngestRun struct {
	StartedAt  time.Time
	FinishedAt *time.Time
	ID         string
	FileDesc   string
	Flavor     string
	Env        string
	Status     RunStatus
	Error      string
	WideRows   int
	LongRows   int
}

// ReconcileEntry records the rows removed from one table for one matched
// value, normally a file_desc.
type ReconcileEntry struct {
	CreatedAt   time.Time
	ID          string
	BatchID     string
	Table       string
	Column      string
	Value       string
	Status      RunStatus
	Error       string
	RowsDeleted int64
}

// CatalogEntry summarizes one cataloged file of a table.
type CatalogEntry struct {
	FileDesc string
	FileDate string
	Rows     int
}
