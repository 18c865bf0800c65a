// Package model defines the records that flow from spreadsheet grids into the deck tables.
package model

import "time"

// DateLayout is the dashed layout used for file dates and period labels.
const DateLayout = "2006-01-02"

// Table column names.
const (
	ColFileDate           = "file_date"
	ColFileDesc           = "file_desc"
	ColProcessedTimestamp = "processed_timestamp"
	ColForecastVersion    = "forecast_version"
	ColCategory           = "category"
	ColBenchmark          = "benchmark"
	ColCurrencyUnits      = "currency_units"
	ColValue              = "value"
	ColYear               = "year"
	ColQuarter            = "quarter"
	ColMonth              = "month"
	ColPeriod             = "period"
)

// LongColumns is the long table column order consumed downstream.
var LongColumns = []string{
	ColFileDate,
	ColFileDesc,
	ColProcessedTimestamp,
	ColForecastVersion,
	ColCategory,
	ColBenchmark,
	ColCurrencyUnits,
	ColValue,
	ColYear,
	ColQuarter,
	ColMonth,
	ColPeriod,
}

// WideLeadingColumns are the descriptive and provenance columns that precede
// the value columns of the wide table.
var WideLeadingColumns = []string{
	ColFileDate,
	ColFileDesc,
	ColProcessedTimestamp,
	ColForecastVersion,
	ColCategory,
	ColBenchmark,
	ColCurrencyUnits,
}

// Provenance records which file, forecast and processing run produced a row.
// FileDesc is the durable identity used by catalog sync and retraction.
type Provenance struct {
	ProcessedTimestamp time.Time
	FileDate           string
	FileDesc           string
	ForecastVersion    string
}
