// Package storage persists deck tables and the ingest bookkeeping in SQLite.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/deckflow/internal/config"
	"github.com/Veraticus/deckflow/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrEmptySlice     = errors.New("slice cannot be empty")
	ErrInvalidTable   = errors.New("invalid table name")
	ErrInvalidColumn  = errors.New("invalid column")
	ErrInvalidWide    = errors.New("invalid wide table")
	ErrInvalidLongRow = errors.New("invalid long row")
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// retractColumns are the provenance columns a retraction may match on.
var retractColumns = map[string]bool{
	model.ColFileDesc:        true,
	model.ColFileDate:        true,
	model.ColForecastVersion: true,
}

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateIdentifier accepts only bare SQL identifiers, since table names
// are interpolated into statements.
func validateIdentifier(table string) error {
	if !identifierRe.MatchString(table) {
		return fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	return nil
}

func validateTables(tables config.TableSet) error {
	if err := validateIdentifier(tables.Wide); err != nil {
		return err
	}
	if err := validateIdentifier(tables.Long); err != nil {
		return err
	}
	if tables.Wide == tables.Long {
		return fmt.Errorf("%w: wide and long tables are both %q", ErrInvalidTable, tables.Wide)
	}
	return nil
}

func validateRetractColumn(column string) error {
	if !retractColumns[column] {
		return fmt.Errorf("%w: %q cannot be used to retract rows", ErrInvalidColumn, column)
	}
	return nil
}

// validateWide checks a normalized table before any of it is written.
func validateWide(wide *model.WideTable) error {
	if wide == nil {
		return fmt.Errorf("%w: wide table", ErrNilParameter)
	}
	if err := validateString(wide.Provenance.FileDesc, "file_desc"); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWide, err)
	}

	cols := wide.ValueColumns()
	seen := make(map[string]bool, len(cols)+len(model.WideLeadingColumns))
	for _, c := range model.WideLeadingColumns {
		seen[c] = true
	}
	for _, c := range cols {
		if strings.TrimSpace(c) == "" || strings.ContainsRune(c, 0) {
			return fmt.Errorf("%w: empty value column name", ErrInvalidWide)
		}
		if seen[c] {
			return fmt.Errorf("%w: duplicate column %q", ErrInvalidWide, c)
		}
		seen[c] = true
	}

	for i, row := range wide.Rows {
		if len(row.Values) != len(cols) {
			return fmt.Errorf("%w: row %d has %d values for %d columns", ErrInvalidWide, i, len(row.Values), len(cols))
		}
		if strings.TrimSpace(row.Category) == "" || strings.TrimSpace(row.CurrencyUnits) == "" {
			return fmt.Errorf("%w: row %d is missing category or currency units", ErrInvalidWide, i)
		}
	}
	return nil
}

func validateLong(desc string, rows []model.LongRow) error {
	for i, r := range rows {
		if r.FileDesc != desc {
			return fmt.Errorf("%w: row %d belongs to %q, not %q", ErrInvalidLongRow, i, r.FileDesc, desc)
		}
		if r.Period.IsZero() {
			return fmt.Errorf("%w: row %d has no period", ErrInvalidLongRow, i)
		}
	}
	return nil
}

// quoteIdent quotes a column name such as "2024-01-31" for use in SQL.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
