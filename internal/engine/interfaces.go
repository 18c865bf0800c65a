package engine

import (
	"github.com/Veraticus/deckflow/internal/model"
)

// ReadFunc loads the grid of one worksheet from a workbook on disk.
type ReadFunc func(path, sheet string, headerRow int) (*model.Grid, error)
