package model

import (
	"database/sql"
	"time"
)

// LongRow is one (benchmark, period) observation of a deck.
type LongRow struct {
	Period time.Time
	Provenance
	Category      string
	Benchmark     string
	CurrencyUnits string
	Value         sql.NullFloat64
	Year          int
	Quarter       int
	Month         int
}

// QuarterOf returns the calendar quarter (1-4) of t.
func QuarterOf(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}
