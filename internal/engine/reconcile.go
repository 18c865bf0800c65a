package engine

import (
	"context"

	"github.com/Veraticus/deckflow/internal/catalog"
	"github.com/Veraticus/deckflow/internal/model"
)

// Retract removes every row of the given files from all of the flavor's
// tables in one transaction.
func (e *Engine) Retract(ctx context.Context, files []catalog.FileRef) (int64, error) {
	return e.RetractDescs(ctx, catalog.Descs(files))
}

// RetractDescs is Retract for file_desc values, as stored.
func (e *Engine) RetractDescs(ctx context.Context, descs []string) (int64, error) {
	if len(descs) == 0 {
		return 0, nil
	}
	normalized := make([]string, len(descs))
	for i, d := range descs {
		normalized[i] = catalog.NormalizeDesc(d)
	}
	return e.storage.Retract(ctx, e.tables.All(), model.ColFileDesc, normalized)
}
