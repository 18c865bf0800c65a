// Package spreadsheet reads worksheets into raw grids.
package spreadsheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/deckflow/internal/common"
	"github.com/Veraticus/deckflow/internal/model"
)

// headerTimeLayout matches how date headers read back from the workbook, so
// truncation to ten characters leaves a bare date.
const headerTimeLayout = "2006-01-02 15:04:05"

// ReadFile opens the workbook at path and reads sheet. headerRow is the
// zero-based sheet row holding the column headers; the rows below it become
// the grid's data rows.
func ReadFile(path, sheet string, headerRow int) (*model.Grid, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return ReadWorkbook(f, sheet, headerRow)
}

// Read is ReadFile over an already open stream.
func Read(r io.Reader, sheet string, headerRow int) (*model.Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadWorkbook(f, sheet, headerRow)
}

// ReadWorkbook reads sheet from an open workbook. Cells come back unformatted;
// header cells formatted as dates are rendered as "YYYY-MM-DD hh:mm:ss".
func ReadWorkbook(f *excelize.File, sheet string, headerRow int) (*model.Grid, error) {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q (have %s)", common.ErrSheetNotFound, sheet, strings.Join(f.GetSheetList(), ", "))
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if headerRow < 0 || headerRow >= len(rows) {
		return nil, fmt.Errorf("%w: sheet %q has %d rows, header expected on row %d",
			common.ErrShapeMismatch, sheet, len(rows), headerRow+1)
	}

	header := make([]string, len(rows[headerRow]))
	for col, raw := range rows[headerRow] {
		header[col] = headerCell(f, sheet, col, headerRow, raw)
	}

	data := make([][]string, 0, len(rows)-headerRow-1)
	for _, r := range rows[headerRow+1:] {
		data = append(data, append([]string(nil), r...))
	}

	return &model.Grid{Sheet: sheet, Header: header, Rows: data}, nil
}

// headerCell renders a header. Numeric cells carrying a date number format
// are converted from their serial value.
func headerCell(f *excelize.File, sheet string, col, row int, raw string) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return raw
	}

	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return raw
	}
	if !isDateCell(f, sheet, axis) {
		return raw
	}

	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return raw
	}
	return t.Format(headerTimeLayout)
}

func isDateCell(f *excelize.File, sheet, axis string) bool {
	styleID, err := f.GetCellStyle(sheet, axis)
	if err != nil || styleID == 0 {
		return false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormat(*style.CustomNumFmt)
	}
	return isBuiltinDateFormat(style.NumFmt)
}

// isBuiltinDateFormat covers the built-in date and datetime number formats.
func isBuiltinDateFormat(id int) bool {
	return (id >= 14 && id <= 17) || id == 22 || (id >= 27 && id <= 36) || (id >= 50 && id <= 58)
}

// isDateFormat reports whether a custom format code renders a date: it has a
// year or day token outside quoted literals and bracketed sections.
func isDateFormat(code string) bool {
	var inQuote, inBracket bool
	for _, r := range strings.ToLower(code) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		case r == 'y' || r == 'd':
			return true
		}
	}
	return false
}
