package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/deckflow/internal/model"
	"github.com/Veraticus/deckflow/internal/service"
)

func TestRuns_Lifecycle(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	clock := time.Date(2024, 1, 16, 15, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	ok := &model.IngestRun{FileDesc: "a_20240115.xlsx", Flavor: "HSM", Env: "dev"}
	require.NoError(t, store.StartRun(ctx, ok))
	assert.NotEmpty(t, ok.ID)
	assert.Equal(t, model.StatusRunning, ok.Status)

	bad := &model.IngestRun{FileDesc: "b.xlsx", Flavor: "HSM", Env: "dev"}
	require.NoError(t, store.StartRun(ctx, bad))

	ok.Status = model.StatusSucceeded
	ok.WideRows, ok.LongRows = 4, 48
	require.NoError(t, store.FinishRun(ctx, ok))
	require.NotNil(t, ok.FinishedAt)

	bad.Status = model.StatusFailed
	bad.Error = "no 8-digit date token in file name"
	require.NoError(t, store.FinishRun(ctx, bad))

	runs, err := store.ListRuns(ctx, service.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, bad.ID, runs[0].ID, "newest first")
	assert.Equal(t, bad.Error, runs[0].Error)
	assert.Equal(t, 48, runs[1].LongRows)
	require.NotNil(t, runs[1].FinishedAt)

	failed, err := store.ListRuns(ctx, service.RunFilter{Status: model.StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "b.xlsx", failed[0].FileDesc)

	limited, err := store.ListRuns(ctx, service.RunFilter{Flavor: "HSM", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRuns_Validation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.StartRun(ctx, nil), ErrNilParameter)
	assert.ErrorIs(t, store.StartRun(ctx, &model.IngestRun{}), ErrEmptyString)

	run := &model.IngestRun{FileDesc: "a.xlsx", Flavor: "MB", Env: "prod"}
	require.NoError(t, store.StartRun(ctx, run))
	assert.Error(t, store.FinishRun(ctx, run), "still running")

	run.ID = "unknown"
	run.Status = model.StatusSucceeded
	assert.Error(t, store.FinishRun(ctx, run))
}
