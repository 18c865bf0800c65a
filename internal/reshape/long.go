package reshape

import (
	"sort"
	"time"

	"github.com/Veraticus/deckflow/internal/model"
)

type periodColumn struct {
	period time.Time
	idx    int
}

// ToLong unpivots a wide table into one row per (benchmark, period column).
// Every value column is considered; labels that do not parse as YYYY-MM-DD,
// such as the yearly means, are left out entirely. Rows come back ordered by
// (category, benchmark, period).
func ToLong(table *model.WideTable) []model.LongRow {
	if table == nil {
		return nil
	}

	var periods []periodColumn
	for i, label := range table.ValueColumns() {
		p, err := time.Parse(model.DateLayout, label)
		if err != nil {
			continue
		}
		periods = append(periods, periodColumn{period: p, idx: i})
	}

	out := make([]model.LongRow, 0, len(table.Rows)*len(periods))
	for _, row := range table.Rows {
		for _, pc := range periods {
			lr := model.LongRow{
				Provenance:    table.Provenance,
				Category:      row.Category,
				Benchmark:     row.Benchmark,
				CurrencyUnits: row.CurrencyUnits,
				Period:        pc.period,
				Year:          pc.period.Year(),
				Quarter:       model.QuarterOf(pc.period),
				Month:         int(pc.period.Month()),
			}
			if pc.idx < len(row.Values) {
				lr.Value = row.Values[pc.idx]
			}
			out = append(out, lr)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Benchmark != b.Benchmark {
			return a.Benchmark < b.Benchmark
		}
		return a.Period.Before(b.Period)
	})
	return out
}
