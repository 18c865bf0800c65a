package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/deckflow/internal/config"
	"github.com/Veraticus/deckflow/internal/model"
)

func TestCatalogedFiles_MissingTable(t *testing.T) {
	store := createTestStorage(t)

	descs, exists, err := store.CatalogedFiles(context.Background(), testTables.Long)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Nil(t, descs)
}

func TestAppendFile_CreatesTablesAndCatalogs(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	wide, long := deckFixture("2024/deck_20240115.xlsx", "2024-01-15", "2024-01-31", "2024-02-29")
	require.NoError(t, store.AppendFile(ctx, testTables, wide, long))

	for _, table := range testTables.All() {
		descs, exists, err := store.CatalogedFiles(ctx, table)
		require.NoError(t, err)
		assert.True(t, exists)
		assert.Equal(t, []string{"2024/deck_20240115.xlsx"}, descs)
	}

	summary, err := store.CatalogSummary(ctx, testTables.Long)
	require.NoError(t, err)
	assert.Equal(t, []model.CatalogEntry{
		{FileDesc: "2024/deck_20240115.xlsx", FileDate: "2024-01-15", Rows: 4},
	}, summary)

	cols, err := tableColumns(ctx, store.db, testTables.Long)
	require.NoError(t, err)
	assert.Equal(t, model.LongColumns, cols)

	cols, err = tableColumns(ctx, store.db, testTables.Wide)
	require.NoError(t, err)
	assert.Equal(t, wide.Columns(), cols)
}

func TestAppendFile_AddsNewValueColumns(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	first, firstLong := deckFixture("a_20240115.xlsx", "2024-01-15", "2024-01-31", "2024-02-29")
	require.NoError(t, store.AppendFile(ctx, testTables, first, firstLong))

	second, secondLong := deckFixture("b_20240215.xlsx", "2024-02-15", "2024-02-29", "2024-03-31")
	second.YearColumns = []string{"2024"}
	for i := range second.Rows {
		second.Rows[i].Values = append(second.Rows[i].Values, val(80))
	}
	require.NoError(t, store.AppendFile(ctx, testTables, second, secondLong))

	cols, err := tableColumns(ctx, store.db, testTables.Wide)
	require.NoError(t, err)
	assert.Equal(t, append(append([]string{}, model.WideLeadingColumns...),
		"2024-01-31", "2024-02-29", "2024-03-31", "2024"), cols)

	// Rows from the first file read null in columns that arrived later.
	var nulls int
	require.NoError(t, store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM hsm_price_deck_wide WHERE "2024-03-31" IS NULL AND file_desc = ?`,
		"a_20240115.xlsx").Scan(&nulls))
	assert.Equal(t, 2, nulls)
}

func TestAppendFile_RoundTripsLongRows(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	wide, long := deckFixture("deck_20240115.xlsx", "2024-01-15", "2024-03-31")
	long[1].Value.Valid = false
	require.NoError(t, store.AppendFile(ctx, testTables, wide, long))

	got, err := store.LongRows(ctx, testTables.Long, "deck_20240115.xlsx")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "WTI Cushing", got[0].Benchmark)
	assert.Equal(t, 2024, got[0].Year)
	assert.Equal(t, 1, got[0].Quarter)
	assert.Equal(t, 3, got[0].Month)
	assert.Equal(t, "2024-03-31", got[0].Period.Format(model.DateLayout))
	assert.True(t, got[0].ProcessedTimestamp.Equal(long[0].ProcessedTimestamp))
	_, offset := got[0].ProcessedTimestamp.Zone()
	assert.Equal(t, -6*60*60, offset)
	assert.Equal(t, "v1", got[0].ForecastVersion)
	assert.False(t, got[1].Value.Valid)

	none, err := store.LongRows(ctx, "never_written", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAppendFile_RejectsForeignLongRows(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	wide, long := deckFixture("deck_20240115.xlsx", "2024-01-15", "2024-01-31")
	long[1].FileDesc = "other.xlsx"

	err := store.AppendFile(ctx, testTables, wide, long)
	assert.ErrorIs(t, err, ErrInvalidLongRow)

	exists, err := store.TableExists(ctx, testTables.Wide)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAppendFile_RollsBackOnInsertFailure(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	// A pre-existing long table with an incompatible shape makes the long
	// insert fail after the wide insert succeeded.
	_, err := store.db.ExecContext(ctx, `CREATE TABLE hsm_price_deck (file_desc TEXT NOT NULL)`)
	require.NoError(t, err)

	wide, long := deckFixture("deck_20240115.xlsx", "2024-01-15", "2024-01-31")
	require.Error(t, store.AppendFile(ctx, testTables, wide, long))

	exists, err := store.TableExists(ctx, testTables.Wide)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestAppendFile_Validation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	wide, long := deckFixture("deck_20240115.xlsx", "2024-01-15", "2024-01-31")

	tests := []struct {
		wantErr error
		mutate  func(*config.TableSet, *model.WideTable)
		name    string
	}{
		{
			name:    "bad table name",
			mutate:  func(ts *config.TableSet, _ *model.WideTable) { ts.Wide = "deck wide" },
			wantErr: ErrInvalidTable,
		},
		{
			name:    "same table twice",
			mutate:  func(ts *config.TableSet, _ *model.WideTable) { ts.Long = ts.Wide },
			wantErr: ErrInvalidTable,
		},
		{
			name:    "missing file desc",
			mutate:  func(_ *config.TableSet, w *model.WideTable) { w.Provenance.FileDesc = "" },
			wantErr: ErrInvalidWide,
		},
		{
			name:    "value count mismatch",
			mutate:  func(_ *config.TableSet, w *model.WideTable) { w.Rows[0].Values = nil },
			wantErr: ErrInvalidWide,
		},
		{
			name:    "value column shadows provenance",
			mutate:  func(_ *config.TableSet, w *model.WideTable) { w.PeriodColumns = []string{model.ColCategory} },
			wantErr: ErrInvalidWide,
		},
		{
			name:    "missing currency units",
			mutate:  func(_ *config.TableSet, w *model.WideTable) { w.Rows[1].CurrencyUnits = " " },
			wantErr: ErrInvalidWide,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := testTables
			w := *wide
			w.Rows = append([]model.WideRow(nil), wide.Rows...)
			tt.mutate(&ts, &w)

			l := long
			if w.Provenance.FileDesc == "" {
				l = nil
			}
			err := store.AppendFile(ctx, ts, &w, l)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.ErrorIs(t, store.AppendFile(ctx, testTables, nil, nil), ErrNilParameter)
}
