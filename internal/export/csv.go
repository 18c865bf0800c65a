// Package export writes deck tables in flat file formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/Veraticus/deckflow/internal/model"
)

// LongRecord is one CSV line of the long table. Field order matches the
// long table's column order.
type LongRecord struct {
	FileDate           string   `csv:"file_date"`
	FileDesc           string   `csv:"file_desc"`
	ProcessedTimestamp string   `csv:"processed_timestamp"`
	ForecastVersion    string   `csv:"forecast_version"`
	Category           string   `csv:"category"`
	Benchmark          string   `csv:"benchmark"`
	CurrencyUnits      string   `csv:"currency_units"`
	Value              *float64 `csv:"value"`
	Year               int      `csv:"year"`
	Quarter            int      `csv:"quarter"`
	Month              int      `csv:"month"`
	Period             string   `csv:"period"`
}

// NewLongRecord flattens a long row. Null values become empty cells.
func NewLongRecord(r model.LongRow) LongRecord {
	rec := LongRecord{
		FileDate:           r.FileDate,
		FileDesc:           r.FileDesc,
		ProcessedTimestamp: r.ProcessedTimestamp.Format(time.RFC3339),
		ForecastVersion:    r.ForecastVersion,
		Category:           r.Category,
		Benchmark:          r.Benchmark,
		CurrencyUnits:      r.CurrencyUnits,
		Year:               r.Year,
		Quarter:            r.Quarter,
		Month:              r.Month,
		Period:             r.Period.Format(model.DateLayout),
	}
	if r.Value.Valid {
		v := r.Value.Float64
		rec.Value = &v
	}
	return rec
}

// WriteLongCSV writes rows with a header line, even when rows is empty.
func WriteLongCSV(w io.Writer, rows []model.LongRow) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if len(rows) == 0 {
		if err := enc.EncodeHeader(LongRecord{}); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}
	for i, r := range rows {
		if err := enc.Encode(NewLongRecord(r)); err != nil {
			return fmt.Errorf("failed to encode row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
