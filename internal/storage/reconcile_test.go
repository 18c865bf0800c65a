package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/deckflow/internal/common"
	"github.com/Veraticus/deckflow/internal/model"
)

func seedDecks(t *testing.T, store *SQLiteStorage, descs ...string) {
	t.Helper()
	for _, d := range descs {
		wide, long := deckFixture(d, "2023-06-30", "2023-07-31", "2023-08-31")
		require.NoError(t, store.AppendFile(context.Background(), testTables, wide, long))
	}
}

func TestRetract_RemovesOnlyDeletedFile(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	seedDecks(t, store, "2023/old.xlsx", "2023/kept.xlsx")

	n, err := store.Retract(ctx, testTables.All(), model.ColFileDesc, []string{"2023/old.xlsx"})
	require.NoError(t, err)
	// Two wide rows and four long rows.
	assert.Equal(t, int64(6), n)

	for _, table := range testTables.All() {
		descs, _, err := store.CatalogedFiles(ctx, table)
		require.NoError(t, err)
		assert.Equal(t, []string{"2023/kept.xlsx"}, descs, table)
	}

	entries, err := store.ReconciliationLog(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byTable := map[string]model.ReconcileEntry{}
	for _, e := range entries {
		byTable[e.Table] = e
		assert.Equal(t, model.StatusSucceeded, e.Status)
		assert.Equal(t, "2023/old.xlsx", e.Value)
		assert.Equal(t, model.ColFileDesc, e.Column)
	}
	assert.Equal(t, int64(2), byTable[testTables.Wide].RowsDeleted)
	assert.Equal(t, int64(4), byTable[testTables.Long].RowsDeleted)
	assert.Equal(t, entries[0].BatchID, entries[1].BatchID)
}

func TestRetract_Idempotent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	seedDecks(t, store, "old.xlsx")

	_, err := store.Retract(ctx, testTables.All(), model.ColFileDesc, []string{"old.xlsx"})
	require.NoError(t, err)

	n, err := store.Retract(ctx, testTables.All(), model.ColFileDesc, []string{"old.xlsx", "old.xlsx"})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRetract_SkipsMissingTablesAndEmptyInput(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	n, err := store.Retract(ctx, []string{"never_created"}, model.ColFileDesc, []string{"a.xlsx"})
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = store.Retract(ctx, testTables.All(), model.ColFileDesc, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRetract_ManyFilesAcrossChunks(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	seedDecks(t, store, "keep.xlsx", "gone.xlsx")

	values := make([]string, 0, retractChunk+10)
	for i := 0; i < retractChunk+9; i++ {
		values = append(values, "missing/"+string(rune('a'+i%26))+string(rune('a'+i/26)))
	}
	values = append(values, "gone.xlsx")

	n, err := store.Retract(ctx, []string{testTables.Long}, model.ColFileDesc, values)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	descs, _, err := store.CatalogedFiles(ctx, testTables.Long)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.xlsx"}, descs)
}

func TestRetract_Validation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.Retract(ctx, testTables.All(), "category", []string{"x"})
	assert.ErrorIs(t, err, ErrInvalidColumn)

	_, err = store.Retract(ctx, []string{"deck; DROP TABLE x"}, model.ColFileDesc, []string{"x"})
	assert.ErrorIs(t, err, ErrInvalidTable)
}

func TestRetract_FailureLeavesTablesAndLogsFailure(t *testing.T) {
	store := createTestStorage(t)
	seedDecks(t, store, "old.xlsx")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Retract(ctx, testTables.All(), model.ColFileDesc, []string{"old.xlsx"})
	require.ErrorIs(t, err, common.ErrReconcileFailed)

	bg := context.Background()
	for _, table := range testTables.All() {
		descs, _, err := store.CatalogedFiles(bg, table)
		require.NoError(t, err)
		assert.Equal(t, []string{"old.xlsx"}, descs, table)
	}

	entries, err := store.ReconciliationLog(bg, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, model.StatusFailed, e.Status)
		assert.NotEmpty(t, e.Error)
	}
}
