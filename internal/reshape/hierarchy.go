// Package reshape turns raw spreadsheet grids into normalized wide tables and
// unpivots those into long rows.
package reshape

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Row is one spreadsheet row tagged with its position in the source sheet.
// Ordinal gives the total order forward-fill runs in.
type Row struct {
	Cells   []string
	Ordinal int
}

// Cell returns the value at col, or "" past the end of the row.
func (r *Row) Cell(col int) string {
	if col < 0 || col >= len(r.Cells) {
		return ""
	}
	return r.Cells[col]
}

// SetCell writes v at col, growing the row if needed.
func (r *Row) SetCell(col int, v string) {
	for len(r.Cells) <= col {
		r.Cells = append(r.Cells, "")
	}
	r.Cells[col] = v
}

// IsNull reports whether a cell is empty or a NaN marker.
func IsNull(v string) bool {
	t := strings.TrimSpace(v)
	return t == "" || strings.EqualFold(t, "nan")
}

func orderedCopy(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row{Ordinal: r.Ordinal, Cells: append([]string(nil), r.Cells...)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out
}

// fillRange forward-fills col within rows starting from the carried value and
// returns the value to carry past the end of rows.
func fillRange(rows []Row, col int, last string, have bool) (string, bool) {
	for i := range rows {
		v := rows[i].Cell(col)
		if IsNull(v) {
			if have {
				rows[i].SetCell(col, last)
			}
			continue
		}
		last, have = v, true
	}
	return last, have
}

// ForwardFill replaces each null value of col with the nearest preceding
// non-null value in Ordinal order. Leading nulls stay null. The input is not
// modified; the result is sorted by Ordinal.
func ForwardFill(rows []Row, col int) []Row {
	out := orderedCopy(rows)
	fillRange(out, col, "", false)
	return out
}

// ForwardFillSegmented produces the same result as ForwardFill, filling
// segments concurrently and then carrying each segment's last value into the
// leading nulls of the segments after it.
func ForwardFillSegmented(ctx context.Context, rows []Row, col, segments int) ([]Row, error) {
	out := orderedCopy(rows)
	if segments <= 1 || len(out) < 2*segments {
		fillRange(out, col, "", false)
		return out, nil
	}

	size := (len(out) + segments - 1) / segments
	type carry struct {
		last string
		have bool
	}
	carries := make([]carry, 0, segments)
	bounds := make([][2]int, 0, segments)
	for lo := 0; lo < len(out); lo += size {
		bounds = append(bounds, [2]int{lo, min(lo+size, len(out))})
		carries = append(carries, carry{})
	}

	g, gctx := errgroup.WithContext(ctx)
	for s, b := range bounds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			last, have := fillRange(out[b[0]:b[1]], col, "", false)
			carries[s] = carry{last: last, have: have}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	incoming := carries[0]
	for s := 1; s < len(bounds); s++ {
		if incoming.have {
			for i := bounds[s][0]; i < bounds[s][1] && IsNull(out[i].Cell(col)); i++ {
				out[i].SetCell(col, incoming.last)
			}
		}
		if carries[s].have {
			incoming = carries[s]
		}
	}
	return out, nil
}
