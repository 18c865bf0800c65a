package model

import "database/sql"

// WideRow is one benchmark of a normalized deck.
type WideRow struct {
	Category      string
	Benchmark     string
	CurrencyUnits string
	// Values is aligned with WideTable.ValueColumns.
	Values []sql.NullFloat64
}

// WideTable is the normalized form of one spreadsheet. PeriodColumns hold
// the truncated date labels; YearColumns hold the derived yearly means.
type WideTable struct {
	Provenance    Provenance
	PeriodColumns []string
	YearColumns   []string
	Rows          []WideRow
}

// ValueColumns returns every column after the leading descriptive and
// provenance columns, periods first.
func (t *WideTable) ValueColumns() []string {
	cols := make([]string, 0, len(t.PeriodColumns)+len(t.YearColumns))
	cols = append(cols, t.PeriodColumns...)
	return append(cols, t.YearColumns...)
}

// Columns returns the full wide schema in table order.
func (t *WideTable) Columns() []string {
	cols := make([]string, 0, len(WideLeadingColumns)+len(t.PeriodColumns)+len(t.YearColumns))
	cols = append(cols, WideLeadingColumns...)
	return append(cols, t.ValueColumns()...)
}

// Value returns the value of row at the named value column. The second
// result is false when the column is not part of the table.
func (t *WideTable) Value(row int, column string) (sql.NullFloat64, bool) {
	for i, c := range t.ValueColumns() {
		if c != column {
			continue
		}
		if vals := t.Rows[row].Values; i < len(vals) {
			return vals[i], true
		}
		return sql.NullFloat64{}, true
	}
	return sql.NullFloat64{}, false
}
