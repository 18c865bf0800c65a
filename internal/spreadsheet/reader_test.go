package spreadsheet

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/deckflow/internal/common"
	"github.com/Veraticus/deckflow/internal/testutil"
)

func TestReadFile_HSMLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "price_deck_20240115.xlsx")
	testutil.WriteWorkbook(t, path, "Price Deck", testutil.HSMRows())

	grid, err := ReadFile(path, "Price Deck", 3)
	require.NoError(t, err)

	assert.Equal(t, "Price Deck", grid.Sheet)
	assert.Equal(t, []string{
		"Category", "Benchmark", "Units",
		"2024-01-31 00:00:00", "2024-02-29 00:00:00", "2024-03-31 00:00:00",
	}, grid.Header)

	require.Len(t, grid.Rows, 8)
	assert.Equal(t, "HSM Price Deck", grid.Cell(0, 0))
	assert.Equal(t, "WTI Cushing", grid.Cell(2, 1))
	assert.Equal(t, "70", grid.Cell(2, 3))
	assert.Equal(t, "US Gulf Coast Crudes", grid.Cell(4, 0))
	assert.Equal(t, "", grid.Cell(6, 2))
}

func TestReadFile_StringAndCustomDateHeaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"c", "b", "u", "2024-02-29 00:00:00", 45382, 12.5}))
	style, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr("yyyy-mm-dd")})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "E1", "E1", style))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	grid, err := ReadFile(path, "Sheet1", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "u", "2024-02-29 00:00:00", "2024-03-31 00:00:00", "12.5"}, grid.Header)
	assert.Empty(t, grid.Rows)
}

func TestRead_FromReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.xlsx")
	testutil.WriteWorkbook(t, path, "MB Deck", [][]any{
		{"c", "b", "u", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)},
		{"Ethane", "Mont Belvieu Ethane", "USc/gal", 21.5},
	})

	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()

	grid, err := Read(fh, "MB Deck", 0)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31 00:00:00", grid.Header[3])
	assert.Equal(t, "21.5", grid.Cell(0, 3))
}

func TestReadFile_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deck.xlsx")
	testutil.WriteWorkbook(t, path, "Price Deck", testutil.HSMRows())

	_, err := ReadFile(path, "Missing", 0)
	assert.ErrorIs(t, err, common.ErrSheetNotFound)

	_, err = ReadFile(path, "Price Deck", 40)
	assert.ErrorIs(t, err, common.ErrShapeMismatch)

	_, err = ReadFile(filepath.Join(t.TempDir(), "nope.xlsx"), "Price Deck", 0)
	assert.Error(t, err)
}

func TestIsDateFormat(t *testing.T) {
	tests := map[string]bool{
		"yyyy-mm-dd":          true,
		"d-mmm":               true,
		"[$-409]mmm-yy":       true,
		"0.00":                false,
		`"day "0`:             false,
		"[Red]0.00":           false,
		"hh:mm:ss":            false,
		"#,##0.00;(#,##0.00)": false,
	}
	for code, want := range tests {
		assert.Equal(t, want, isDateFormat(code), code)
	}

	assert.True(t, isBuiltinDateFormat(14))
	assert.True(t, isBuiltinDateFormat(22))
	assert.False(t, isBuiltinDateFormat(2))
}

func strPtr(s string) *string {
	return &s
}
