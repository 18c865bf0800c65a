package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/deckflow/internal/catalog"
	"github.com/Veraticus/deckflow/internal/common"
	"github.com/Veraticus/deckflow/internal/model"
	"github.com/Veraticus/deckflow/internal/reshape"
)

// FileResult is the outcome of loading one file.
type FileResult struct {
	Err      error
	File     catalog.FileRef
	RunID    string
	Elapsed  time.Duration
	WideRows int
	LongRows int
}

// IngestSummary aggregates the results of one ingestion pass.
type IngestSummary struct {
	Results   []FileResult
	Succeeded int
	Failed    int
	WideRows  int
	LongRows  int
	Elapsed   time.Duration
}

// Failures returns the results that carry an error.
func (s *IngestSummary) Failures() []FileResult {
	var out []FileResult
	for _, r := range s.Results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Ingest loads refs concurrently, at most workers at a time. A failing file
// never stops the others; its error is reported in its FileResult and the
// file stays uncataloged. onDone, when set, is called once per file as it
// finishes, from the worker goroutine.
func (e *Engine) Ingest(ctx context.Context, refs []catalog.FileRef, onDone func(FileResult)) *IngestSummary {
	start := time.Now()
	results := make([]FileResult, len(refs))

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, ref := range refs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = FileResult{File: ref, Err: err}
			} else {
				results[i] = e.IngestFile(ctx, ref)
			}
			if onDone != nil {
				onDone(results[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	summary := &IngestSummary{Results: results, Elapsed: time.Since(start)}
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
			continue
		}
		summary.Succeeded++
		summary.WideRows += r.WideRows
		summary.LongRows += r.LongRows
	}

	slog.Info("Ingestion finished",
		"flavor", e.flavor.Name,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"long_rows", summary.LongRows,
		"elapsed", summary.Elapsed)
	return summary
}

// IngestFile loads one file under the flavor's time budget and records the
// attempt in the run log. Exceeding the budget fails the file with
// common.ErrIngestTimeout; nothing is written for it.
func (e *Engine) IngestFile(ctx context.Context, ref catalog.FileRef) FileResult {
	start := time.Now()
	res := FileResult{File: ref}

	run := &model.IngestRun{FileDesc: ref.RelPath, Flavor: e.flavor.Name, Env: e.env}
	if err := e.storage.StartRun(ctx, run); err != nil {
		common.LogError(err, "Failed to record ingest run", common.Fields{"file_desc": ref.RelPath})
	}
	res.RunID = run.ID

	fileCtx := ctx
	if e.flavor.Timeout > 0 {
		var cancel context.CancelFunc
		fileCtx, cancel = context.WithTimeout(ctx, e.flavor.Timeout)
		defer cancel()
	}

	wide, long, err := e.load(fileCtx, ref)
	if err == nil {
		err = e.storage.AppendFile(fileCtx, e.tables, wide, long)
	}
	res.Err = common.AsTimeout(err)
	res.Elapsed = time.Since(start)
	e.recordOutcome(ref, res.Err)

	if res.Err == nil {
		res.WideRows, res.LongRows = len(wide.Rows), len(long)
		run.Status = model.StatusSucceeded
		slog.Info("Ingested file",
			"file_desc", ref.RelPath,
			"wide_rows", res.WideRows,
			"long_rows", res.LongRows,
			"elapsed", res.Elapsed)
	} else {
		run.Status = model.StatusFailed
		run.Error = res.Err.Error()
		slog.Warn("Failed to ingest file",
			"file_desc", ref.RelPath,
			"error", res.Err,
			"data_error", common.IsFileError(res.Err))
	}

	if run.ID != "" {
		run.WideRows, run.LongRows = res.WideRows, res.LongRows
		if err := e.storage.FinishRun(context.WithoutCancel(ctx), run); err != nil {
			common.LogError(err, "Failed to finish ingest run", common.Fields{"run_id": run.ID})
		}
	}
	return res
}

type loaded struct {
	err  error
	wide *model.WideTable
	long []model.LongRow
}

// load reads and reshapes ref. Reading is not cancellable, so the work runs
// in its own goroutine and is abandoned when ctx ends first.
func (e *Engine) load(ctx context.Context, ref catalog.FileRef) (*model.WideTable, []model.LongRow, error) {
	done := make(chan loaded, 1)
	go func() {
		wide, long, err := e.transform(ref)
		done <- loaded{wide: wide, long: long, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, nil, fmt.Errorf("%s: %w", ref.RelPath, ctx.Err())
	case l := <-done:
		return l.wide, l.long, l.err
	}
}

func (e *Engine) transform(ref catalog.FileRef) (*model.WideTable, []model.LongRow, error) {
	fileDate, err := ref.FileDate()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", ref.RelPath, err)
	}

	grid, err := e.read(ref.Path(), e.flavor.Sheet, e.flavor.HeaderRow)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", ref.RelPath, err)
	}

	wide, err := e.normalizer.Normalize(grid, fileDate, e.forecastVersion, ref.RelPath)
	if err != nil {
		return nil, nil, err
	}
	return wide, reshape.ToLong(wide), nil
}
