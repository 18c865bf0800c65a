package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Veraticus/deckflow/internal/model"
	"github.com/Veraticus/deckflow/internal/service"
)

// StartRun records a run in the running state, assigning its ID and start
// time when they are unset.
func (s *SQLiteStorage) StartRun(ctx context.Context, run *model.IngestRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if err := validateString(run.FileDesc, "file_desc"); err != nil {
		return err
	}

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = s.now().UTC()
	}
	run.Status = model.StatusRunning

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingest_runs (id, file_desc, flavor, env, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.FileDesc, run.Flavor, run.Env, string(run.Status), run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to start run for %s: %w", run.FileDesc, err)
	}
	return nil
}

// FinishRun stores the final status, row counts and error of a run.
func (s *SQLiteStorage) FinishRun(ctx context.Context, run *model.IngestRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if run.Status != model.StatusSucceeded && run.Status != model.StatusFailed {
		return fmt.Errorf("run %s cannot finish with status %q", run.ID, run.Status)
	}

	finished := s.now().UTC()
	run.FinishedAt = &finished

	res, err := s.db.ExecContext(ctx, `
		UPDATE ingest_runs
		SET status = ?, wide_rows = ?, long_rows = ?, error = ?, finished_at = ?
		WHERE id = ?`,
		string(run.Status), run.WideRows, run.LongRows, nullString(run.Error), finished, run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", run.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", run.ID, sql.ErrNoRows)
	}
	return nil
}

// ListRuns returns runs newest first.
func (s *SQLiteStorage) ListRuns(ctx context.Context, filter service.RunFilter) ([]model.IngestRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.Flavor != "" {
		where = append(where, "flavor = ?")
		args = append(args, filter.Flavor)
	}
	if filter.FileDesc != "" {
		where = append(where, "file_desc = ?")
		args = append(args, filter.FileDesc)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `SELECT id, file_desc, flavor, env, status, wide_rows, long_rows, error, started_at, finished_at
		FROM ingest_runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY started_at DESC, file_desc"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.IngestRun
	for rows.Next() {
		var (
			r        model.IngestRun
			status   string
			errMsg   sql.NullString
			finished sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.FileDesc, &r.Flavor, &r.Env, &status,
			&r.WideRows, &r.LongRows, &errMsg, &r.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Status = model.RunStatus(status)
		r.Error = errMsg.String
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
