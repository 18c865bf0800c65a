package model

// Grid is a rectangular view of one worksheet: the header row and the data
// rows beneath it, as raw cell text. Missing cells read as "".
type Grid struct {
	Sheet  string
	Header []string
	Rows   [][]string
}

// Cell returns the value at (row, col), or "" when out of range.
func (g *Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g.Rows) {
		return ""
	}
	r := g.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// Width is the widest of the header and every row.
func (g *Grid) Width() int {
	w := len(g.Header)
	for _, r := range g.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}
