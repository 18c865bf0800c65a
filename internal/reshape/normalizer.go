package reshape

import (
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/deckflow/internal/common"
	"github.com/Veraticus/deckflow/internal/config"
	"github.com/Veraticus/deckflow/internal/model"
)

// Positions of the descriptive columns in every flavor's sheet.
const (
	colCategory = iota
	colBenchmark
	colCurrency
	descriptiveColumns
)

// Normalizer cleans one flavor's raw grids into wide tables.
type Normalizer struct {
	loc    *time.Location
	now    func() time.Time
	rules  []hierarchyRule
	flavor config.Flavor
}

// NewNormalizer compiles the flavor's hierarchy rules. Processed timestamps
// are stamped in loc (UTC when nil).
func NewNormalizer(flavor config.Flavor, loc *time.Location) (*Normalizer, error) {
	rules, err := compileRules(flavor.Hierarchy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	if loc == nil {
		loc = time.UTC
	}
	if flavor.HeaderTruncate <= 0 {
		flavor.HeaderTruncate = config.DefaultHeaderTruncate
	}
	return &Normalizer{
		flavor: flavor,
		rules:  rules,
		loc:    loc,
		now:    time.Now,
	}, nil
}

// SetClock replaces the clock used for processed timestamps.
func (n *Normalizer) SetClock(now func() time.Time) {
	n.now = now
}

type valueColumn struct {
	label string
	src   int
}

// Normalize turns grid into a wide table stamped with the file's provenance.
// filePath is the file_desc recorded on every row.
func (n *Normalizer) Normalize(grid *model.Grid, fileDate, forecastVersion, filePath string) (*model.WideTable, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: no grid for %s", common.ErrShapeMismatch, filePath)
	}
	if _, err := time.Parse(model.DateLayout, fileDate); err != nil {
		return nil, fmt.Errorf("%w: file date %q for %s", common.ErrNoDateToken, fileDate, filePath)
	}

	headers := n.truncateHeaders(grid)
	if len(headers) < descriptiveColumns {
		return nil, fmt.Errorf("%w: %s has %d columns, need at least %d",
			common.ErrShapeMismatch, filePath, len(headers), descriptiveColumns)
	}

	rows := n.dropLeadingRows(grid)
	n.seedRow(rows)

	cols := selectValueColumns(headers)
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %s has no period columns", common.ErrShapeMismatch, filePath)
	}

	n.markHierarchy(rows)
	normalizeNullCategories(rows)

	before := len(rows)
	rows = dropRowsWithoutCurrency(rows)
	droppedCurrency := before - len(rows)

	rows = ForwardFill(rows, colCategory)

	table := buildWide(rows, cols)
	addYearAggregates(table)

	table.Provenance = model.Provenance{
		FileDate:           fileDate,
		FileDesc:           filePath,
		ForecastVersion:    forecastVersion,
		ProcessedTimestamp: n.now().In(n.loc),
	}

	sanitizeColumns(table)

	before = len(table.Rows)
	finalizeRows(table)

	slog.Debug("Normalized spreadsheet",
		"file_desc", filePath,
		"flavor", n.flavor.Name,
		"rows", len(table.Rows),
		"period_columns", len(table.PeriodColumns),
		"year_columns", len(table.YearColumns),
		"dropped_no_currency", droppedCurrency,
		"dropped_no_category", before-len(table.Rows))

	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrNoDataRows, filePath)
	}
	return table, nil
}

// truncateHeaders keeps the first three headers and cuts the rest to the
// flavor's truncation length, so "2024-03-31 00:00:00" becomes "2024-03-31".
func (n *Normalizer) truncateHeaders(grid *model.Grid) []string {
	headers := make([]string, grid.Width())
	for i := range headers {
		var h string
		if i < len(grid.Header) {
			h = strings.TrimSpace(grid.Header[i])
		}
		if i >= descriptiveColumns {
			h = truncateLabel(h, n.flavor.HeaderTruncate)
		}
		headers[i] = h
	}
	return headers
}

// dropLeadingRows removes the flavor's configured row range by position and
// tags every surviving row with its original index.
func (n *Normalizer) dropLeadingRows(grid *model.Grid) []Row {
	rows := make([]Row, 0, len(grid.Rows))
	for i, cells := range grid.Rows {
		if n.flavor.SkipRows.Contains(i) {
			continue
		}
		rows = append(rows, Row{Ordinal: i, Cells: append([]string(nil), cells...)})
	}
	return rows
}

// seedRow writes the top-level label into the first row's category cell. The
// sheets leave that cell blank, and without it the first section would have
// nothing to forward-fill from.
func (n *Normalizer) seedRow(rows []Row) {
	if len(rows) == 0 || n.flavor.SeedLabel == "" {
		return
	}
	rows[0].SetCell(colCategory, n.flavor.SeedLabel)
}

// selectValueColumns keeps the columns after the descriptive three whose
// header starts with a digit. Labels that collide after truncation keep their
// first column.
func selectValueColumns(headers []string) []valueColumn {
	seen := make(map[string]bool)
	var cols []valueColumn
	for i := descriptiveColumns; i < len(headers); i++ {
		label := headers[i]
		if !startsWithDigit(label) {
			continue
		}
		if seen[label] {
			slog.Debug("Dropping duplicate period column", "label", label, "column", i)
			continue
		}
		seen[label] = true
		cols = append(cols, valueColumn{label: label, src: i})
	}
	return cols
}

// markHierarchy overwrites category on rows whose benchmark matches a
// hierarchy rule. Rules run in order and the last match wins.
func (n *Normalizer) markHierarchy(rows []Row) {
	if len(n.rules) == 0 {
		return
	}
	for i := range rows {
		if label, ok := applyRules(n.rules, rows[i].Cell(colBenchmark)); ok {
			rows[i].SetCell(colCategory, label)
		}
	}
}

func normalizeNullCategories(rows []Row) {
	for i := range rows {
		if IsNull(rows[i].Cell(colCategory)) {
			rows[i].SetCell(colCategory, "")
		}
	}
}

// dropRowsWithoutCurrency removes section headers and blank rows, which have
// no currency units.
func dropRowsWithoutCurrency(rows []Row) []Row {
	out := rows[:0]
	for _, r := range rows {
		if IsNull(r.Cell(colCurrency)) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func parseValue(raw string) sql.NullFloat64 {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return sql.NullFloat64{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func buildWide(rows []Row, cols []valueColumn) *model.WideTable {
	table := &model.WideTable{
		PeriodColumns: make([]string, len(cols)),
		Rows:          make([]model.WideRow, 0, len(rows)),
	}
	for i, c := range cols {
		table.PeriodColumns[i] = c.label
	}

	for _, r := range rows {
		values := make([]sql.NullFloat64, len(cols))
		for i, c := range cols {
			values[i] = parseValue(r.Cell(c.src))
		}
		table.Rows = append(table.Rows, model.WideRow{
			Category:      r.Cell(colCategory),
			Benchmark:     r.Cell(colBenchmark),
			CurrencyUnits: r.Cell(colCurrency),
			Values:        values,
		})
	}
	return table
}

// addYearAggregates appends one column per distinct year prefix of the period
// labels, holding the mean of that year's non-null period values.
func addYearAggregates(table *model.WideTable) {
	var years []string
	members := make(map[string][]int)
	for i, label := range table.PeriodColumns {
		y, ok := yearPrefix(label)
		if !ok {
			continue
		}
		if _, seen := members[y]; !seen {
			years = append(years, y)
		}
		members[y] = append(members[y], i)
	}
	sort.Strings(years)

	table.YearColumns = years
	for r := range table.Rows {
		row := &table.Rows[r]
		for _, y := range years {
			row.Values = append(row.Values, mean(row.Values, members[y]))
		}
	}
}

func mean(values []sql.NullFloat64, idx []int) sql.NullFloat64 {
	sum := decimal.Zero
	count := 0
	for _, i := range idx {
		if v := values[i]; v.Valid {
			sum = sum.Add(decimal.NewFromFloat(v.Float64))
			count++
		}
	}
	if count == 0 {
		return sql.NullFloat64{}
	}
	f, _ := sum.Div(decimal.NewFromInt(int64(count))).Float64()
	return sql.NullFloat64{Float64: f, Valid: true}
}

// sanitizeColumns strips storage-illegal characters from the value column
// names. A name that collides with an earlier one after stripping is dropped
// along with its values.
func sanitizeColumns(table *model.WideTable) {
	seen := make(map[string]bool)
	var keep []int
	periods, years := table.PeriodColumns[:0:0], table.YearColumns[:0:0]

	for i, c := range table.ValueColumns() {
		name := SanitizeColumnName(c)
		if name == "" || seen[name] {
			slog.Debug("Dropping column after sanitization", "column", c)
			continue
		}
		seen[name] = true
		keep = append(keep, i)
		if i < len(table.PeriodColumns) {
			periods = append(periods, name)
		} else {
			years = append(years, name)
		}
	}

	if len(keep) == len(table.PeriodColumns)+len(table.YearColumns) {
		table.PeriodColumns, table.YearColumns = periods, years
		return
	}

	for r := range table.Rows {
		row := &table.Rows[r]
		vals := make([]sql.NullFloat64, len(keep))
		for j, i := range keep {
			if i < len(row.Values) {
				vals[j] = row.Values[i]
			}
		}
		row.Values = vals
	}
	table.PeriodColumns, table.YearColumns = periods, years
}

// finalizeRows trims categories, drops rows still missing one and orders the
// rest by (category, benchmark).
func finalizeRows(table *model.WideTable) {
	out := table.Rows[:0]
	for _, r := range table.Rows {
		r.Category = strings.TrimSpace(r.Category)
		if IsNull(r.Category) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Benchmark < out[j].Benchmark
	})
	table.Rows = out
}
