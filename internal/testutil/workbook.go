package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// DeckHeader returns a deck header row: three descriptive labels followed by
// one date cell per period, written as real dates so they round-trip the way
// spreadsheet dates do.
func DeckHeader(periods ...time.Time) []any {
	row := []any{"Category", "Benchmark", "Units"}
	for _, p := range periods {
		row = append(row, p)
	}
	return row
}

// MonthEnds returns the last day of each month from (year, first) for n months.
func MonthEnds(year int, first time.Month, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = time.Date(year, first+time.Month(i)+1, 0, 0, 0, 0, 0, time.UTC)
	}
	return out
}

// WriteWorkbook writes rows into sheet of a new workbook at path, creating
// parent directories. Row i lands on sheet row i+1.
func WriteWorkbook(t *testing.T, path, sheet string, rows [][]any) {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatalf("failed to name sheet: %v", err)
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("bad coordinates: %v", err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("failed to write row %d: %v", i+1, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create fixture dir: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}
}

// HSMRows is a small deck laid out like the HSM sheet: three title rows, the
// date header, two rows of sheet furniture, then sections of benchmarks.
// With header row 3 and rows [0, 2) skipped it normalizes to five benchmarks
// over three monthly periods.
func HSMRows() [][]any {
	periods := MonthEnds(2024, time.January, 3)
	return [][]any{
		{"HSM Price Deck"},
		{"Forecast", "", "", "Monthly"},
		{},
		DeckHeader(periods...),
		{"HSM Price Deck"},
		{"", "Benchmark", "Units"},
		{"", "WTI Cushing", "USD/bbl", 70.0, 72.0, 74.0},
		{"", "WTI Midland", "USD/bbl", 71.0, 73.0, 75.0},
		{"US Gulf Coast Crudes", "LLS", "USD/bbl", 75.0, 76.0, 77.0},
		{"", "Mars", "USD/bbl", 72.0, 73.0, 74.0},
		{"", "Canadian Crudes", ""},
		{"", "Canadian Crudes WCS Hardisty", "USD/bbl", 60.0, 61.0, 62.0},
	}
}
