package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Veraticus/deckflow/internal/common"
	"github.com/Veraticus/deckflow/internal/model"
)

// retractChunk bounds the number of bound parameters per IN list.
const retractChunk = 500

// Retract deletes, from every table in tables, the rows whose column equals
// one of values. All tables are cleaned in one transaction together with one
// reconciliation_log row per (table, value), so a failure leaves every table
// untouched. The failure itself is logged outside the transaction so the
// batch can be found and re-run. Tables that do not exist are skipped.
func (s *SQLiteStorage) Retract(ctx context.Context, tables []string, column string, values []string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateRetractColumn(column); err != nil {
		return 0, err
	}
	for _, t := range tables {
		if err := validateIdentifier(t); err != nil {
			return 0, err
		}
	}
	values = dedupe(values)
	if len(tables) == 0 || len(values) == 0 {
		return 0, nil
	}

	batch := uuid.NewString()
	var total int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		total = 0
		for _, table := range tables {
			exists, err := tableExists(ctx, tx, table)
			if err != nil {
				return err
			}
			if !exists {
				slog.Debug("Skipping retraction from missing table", "table", table)
				continue
			}

			counts, err := deleteMatching(ctx, tx, table, column, values)
			if err != nil {
				return err
			}
			for _, v := range values {
				entry := model.ReconcileEntry{
					BatchID:     batch,
					Table:       table,
					Column:      column,
					Value:       v,
					RowsDeleted: counts[v],
					Status:      model.StatusSucceeded,
				}
				if err := s.insertReconcileEntry(ctx, tx, &entry); err != nil {
					return err
				}
				total += counts[v]
			}
		}
		return nil
	})
	if err != nil {
		s.recordFailedRetraction(batch, tables, column, values, err)
		return 0, fmt.Errorf("%w: %w", common.ErrReconcileFailed, err)
	}

	slog.Info("Retracted rows",
		"batch", batch,
		"tables", tables,
		"values", len(values),
		"rows", total)
	return total, nil
}

// deleteMatching removes the matching rows of table and returns how many
// rows each value accounted for.
func deleteMatching(ctx context.Context, tx *sql.Tx, table, column string, values []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(values))
	for start := 0; start < len(values); start += retractChunk {
		chunk := values[start:min(start+retractChunk, len(values))]
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(chunk)), ", ")
		args := make([]any, len(chunk))
		for i, v := range chunk {
			args[i] = v
		}

		rows, err := tx.QueryContext(ctx, fmt.Sprintf(
			`SELECT %[1]s, COUNT(*) FROM %[2]s WHERE %[1]s IN (%[3]s) GROUP BY %[1]s`,
			column, table, placeholders), args...)
		if err != nil {
			return nil, fmt.Errorf("failed to count rows in %s: %w", table, err)
		}
		var expected int64
		for rows.Next() {
			var (
				v string
				n int64
			)
			if err := rows.Scan(&v, &n); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("failed to scan count in %s: %w", table, err)
			}
			counts[v] = n
			expected += n
		}
		if err := rows.Close(); err != nil {
			return nil, err
		}

		res, err := tx.ExecContext(ctx, fmt.Sprintf(
			`DELETE FROM %s WHERE %s IN (%s)`, table, column, placeholders), args...)
		if err != nil {
			return nil, fmt.Errorf("failed to delete from %s: %w", table, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to read rows affected in %s: %w", table, err)
		}
		if affected != expected {
			return nil, fmt.Errorf("deleted %d rows from %s, expected %d", affected, table, expected)
		}
	}
	return counts, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStorage) insertReconcileEntry(ctx context.Context, e execer, entry *model.ReconcileEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	_, err := e.ExecContext(ctx, `
		INSERT INTO reconciliation_log
			(id, batch_id, table_name, match_column, match_value, rows_deleted, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.BatchID, entry.Table, entry.Column, entry.Value,
		entry.RowsDeleted, string(entry.Status), nullString(entry.Error), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to write reconciliation log: %w", err)
	}
	return nil
}

// recordFailedRetraction runs after the rollback, on a fresh context so a
// cancelled caller still leaves a trace.
func (s *SQLiteStorage) recordFailedRetraction(batch string, tables []string, column string, values []string, cause error) {
	ctx := context.Background()
	for _, table := range tables {
		for _, v := range values {
			entry := model.ReconcileEntry{
				BatchID: batch,
				Table:   table,
				Column:  column,
				Value:   v,
				Status:  model.StatusFailed,
				Error:   cause.Error(),
			}
			if err := s.insertReconcileEntry(ctx, s.db, &entry); err != nil {
				slog.Error("Failed to record failed retraction",
					"batch", batch,
					"table", table,
					"value", v,
					"error", err)
				return
			}
		}
	}
}

// ReconciliationLog returns the most recent reconciliation entries first.
func (s *SQLiteStorage) ReconciliationLog(ctx context.Context, limit int) ([]model.ReconcileEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, batch_id, table_name, match_column, match_value, rows_deleted, status, error, created_at
		FROM reconciliation_log
		ORDER BY created_at DESC, table_name, match_value
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reconciliation log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.ReconcileEntry
	for rows.Next() {
		var (
			e      model.ReconcileEntry
			status string
			errMsg sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.BatchID, &e.Table, &e.Column, &e.Value,
			&e.RowsDeleted, &status, &errMsg, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reconciliation entry: %w", err)
		}
		e.Status = model.RunStatus(status)
		e.Error = errMsg.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
