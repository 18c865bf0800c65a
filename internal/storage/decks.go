package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/deckflow/internal/config"
	"github.com/Veraticus/deckflow/internal/model"
)

// timestampLayout keeps the zone offset so processed timestamps stay
// timezone aware in a store without a native timestamptz.
const timestampLayout = "2006-01-02T15:04:05.000000-07:00"

var wideLeadingDDL = []string{
	model.ColFileDate + " TEXT NOT NULL",
	model.ColFileDesc + " TEXT NOT NULL",
	model.ColProcessedTimestamp + " TEXT NOT NULL",
	model.ColForecastVersion + " TEXT",
	model.ColCategory + " TEXT NOT NULL",
	model.ColBenchmark + " TEXT",
	model.ColCurrencyUnits + " TEXT NOT NULL",
}

var longDDL = []string{
	model.ColFileDate + " TEXT NOT NULL",
	model.ColFileDesc + " TEXT NOT NULL",
	model.ColProcessedTimestamp + " TEXT NOT NULL",
	model.ColForecastVersion + " TEXT",
	model.ColCategory + " TEXT NOT NULL",
	model.ColBenchmark + " TEXT",
	model.ColCurrencyUnits + " TEXT NOT NULL",
	model.ColValue + " REAL",
	model.ColYear + " INTEGER NOT NULL",
	model.ColQuarter + " INTEGER NOT NULL",
	model.ColMonth + " INTEGER NOT NULL",
	model.ColPeriod + " TEXT NOT NULL",
}

// CatalogedFiles returns the distinct file_desc values of table. The second
// result is false when the table has not been created yet, which callers
// treat as a bootstrap where every file on disk is new.
func (s *SQLiteStorage) CatalogedFiles(ctx context.Context, table string) ([]string, bool, error) {
	if err := validateContext(ctx); err != nil {
		return nil, false, err
	}
	if err := validateIdentifier(table); err != nil {
		return nil, false, err
	}

	exists, err := tableExists(ctx, s.db, table)
	if err != nil || !exists {
		return nil, false, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT DISTINCT %s FROM %s ORDER BY %s`, model.ColFileDesc, table, model.ColFileDesc))
	if err != nil {
		return nil, true, fmt.Errorf("failed to query cataloged files of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	descs := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, true, fmt.Errorf("failed to scan file_desc: %w", err)
		}
		descs = append(descs, d)
	}
	return descs, true, rows.Err()
}

// CatalogSummary lists each cataloged file of table with its row count.
func (s *SQLiteStorage) CatalogSummary(ctx context.Context, table string) ([]model.CatalogEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}

	exists, err := tableExists(ctx, s.db, table)
	if err != nil || !exists {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %[1]s, MIN(%[2]s), COUNT(*) FROM %[3]s GROUP BY %[1]s ORDER BY %[1]s`,
		model.ColFileDesc, model.ColFileDate, table))
	if err != nil {
		return nil, fmt.Errorf("failed to summarize %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.CatalogEntry
	for rows.Next() {
		var e model.CatalogEntry
		if err := rows.Scan(&e.FileDesc, &e.FileDate, &e.Rows); err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AppendFile writes one file's wide rows and long rows in a single
// transaction. Tables are created on first use and value columns missing
// from the wide table are added; existing columns are never altered.
func (s *SQLiteStorage) AppendFile(ctx context.Context, tables config.TableSet, wide *model.WideTable, long []model.LongRow) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTables(tables); err != nil {
		return err
	}
	if err := validateWide(wide); err != nil {
		return err
	}
	if err := validateLong(wide.Provenance.FileDesc, long); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureTable(ctx, tx, tables.Wide, wideLeadingDDL); err != nil {
			return err
		}
		added, err := addMissingColumns(ctx, tx, tables.Wide, wide.ValueColumns())
		if err != nil {
			return err
		}
		if len(added) > 0 {
			slog.Debug("Widened table", "table", tables.Wide, "columns", added)
		}
		if err := ensureTable(ctx, tx, tables.Long, longDDL); err != nil {
			return err
		}

		if err := insertWide(ctx, tx, tables.Wide, wide); err != nil {
			return err
		}
		return insertLong(ctx, tx, tables.Long, long)
	})
}

func ensureTable(ctx context.Context, tx *sql.Tx, table string, columns []string) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (%s)`, table, strings.Join(columns, ", ")),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_file_desc ON %[1]s(%[2]s)`, table, model.ColFileDesc),
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}
	return nil
}

// tableColumns returns the column names of table in declaration order.
func tableColumns(ctx context.Context, q queryer, table string) ([]string, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var cols []string
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", table, err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

func addMissingColumns(ctx context.Context, tx *sql.Tx, table string, want []string) ([]string, error) {
	have, err := tableColumns(ctx, tx, table)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]bool, len(have))
	for _, c := range have {
		existing[strings.ToLower(c)] = true
	}

	var added []string
	for _, c := range want {
		if existing[strings.ToLower(c)] {
			continue
		}
		stmt := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s REAL`, table, quoteIdent(c))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to add column %q to %s: %w", c, table, err)
		}
		existing[strings.ToLower(c)] = true
		added = append(added, c)
	}
	return added, nil
}

func insertStatement(table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		table, strings.Join(quoted, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "))
}

func insertWide(ctx context.Context, tx *sql.Tx, table string, wide *model.WideTable) error {
	if len(wide.Rows) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, insertStatement(table, wide.Columns()))
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", table, err)
	}
	defer func() { _ = stmt.Close() }()

	p := wide.Provenance
	for i, row := range wide.Rows {
		args := make([]any, 0, len(model.WideLeadingColumns)+len(row.Values))
		args = append(args,
			p.FileDate, p.FileDesc, formatTimestamp(p.ProcessedTimestamp), nullString(p.ForecastVersion),
			row.Category, nullString(row.Benchmark), row.CurrencyUnits)
		for _, v := range row.Values {
			args = append(args, v)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", i, table, err)
		}
	}
	return nil
}

func insertLong(ctx context.Context, tx *sql.Tx, table string, rows []model.LongRow) error {
	if len(rows) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, insertStatement(table, model.LongColumns))
	if err != nil {
		return fmt.Errorf("failed to prepare insert into %s: %w", table, err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range rows {
		_, err := stmt.ExecContext(ctx,
			r.FileDate, r.FileDesc, formatTimestamp(r.ProcessedTimestamp), nullString(r.ForecastVersion),
			r.Category, nullString(r.Benchmark), r.CurrencyUnits,
			r.Value, r.Year, r.Quarter, r.Month, r.Period.Format(model.DateLayout))
		if err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", i, table, err)
		}
	}
	return nil
}

// LongRows reads the long table, optionally limited to one file, ordered
// by file, category, benchmark and period.
func (s *SQLiteStorage) LongRows(ctx context.Context, table string, fileDesc string) ([]model.LongRow, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}

	exists, err := tableExists(ctx, s.db, table)
	if err != nil || !exists {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s`, strings.Join(model.LongColumns, ", "), table)
	var args []any
	if fileDesc != "" {
		query += fmt.Sprintf(` WHERE %s = ?`, model.ColFileDesc)
		args = append(args, fileDesc)
	}
	query += fmt.Sprintf(` ORDER BY %s, %s, %s, %s`,
		model.ColFileDesc, model.ColCategory, model.ColBenchmark, model.ColPeriod)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.LongRow
	for rows.Next() {
		var (
			r         model.LongRow
			processed string
			forecast  sql.NullString
			benchmark sql.NullString
			period    string
		)
		if err := rows.Scan(&r.FileDate, &r.FileDesc, &processed, &forecast,
			&r.Category, &benchmark, &r.CurrencyUnits,
			&r.Value, &r.Year, &r.Quarter, &r.Month, &period); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", table, err)
		}
		r.ForecastVersion = forecast.String
		r.Benchmark = benchmark.String
		if r.ProcessedTimestamp, err = time.Parse(timestampLayout, processed); err != nil {
			return nil, fmt.Errorf("bad processed_timestamp %q in %s: %w", processed, table, err)
		}
		if r.Period, err = time.Parse(model.DateLayout, period); err != nil {
			return nil, fmt.Errorf("bad period %q in %s: %w", period, table, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func formatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
