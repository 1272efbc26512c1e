package model

import (
	"slices"
	"strings"
)

// Frame is one window of column-indexed tabular input. Rows keep their
// absolute position in the source so windows can be addressed the same way
// regardless of where they were cut.
type Frame struct {
	columns []string
	index   []int64
	cells   map[string][]string
}

// NewFrame creates an empty frame with the given header.
func NewFrame(header []string) *Frame {
	f := &Frame{
		columns: append([]string(nil), header...),
		cells:   make(map[string][]string, len(header)),
	}
	for _, c := range header {
		f.cells[c] = nil
	}
	return f
}

// Append adds a row found at absolute position pos. Short rows are padded with
// empty cells, extra cells are ignored.
func (f *Frame) Append(pos int64, row []string) {
	f.index = append(f.index, pos)
	for i, c := range f.columns {
		v := ""
		if i < len(row) {
			v = row[i]
		}
		f.cells[c] = append(f.cells[c], v)
	}
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.index) }

// Columns returns the current column names in order.
func (f *Frame) Columns() []string { return append([]string(nil), f.columns...) }

// Keep restricts the frame to the allow-listed columns, in allow-list order.
// Allow-listed columns absent from the source are added empty so a later Fill
// gives them the sentinel value.
func (f *Frame) Keep(allow []string) {
	cells := make(map[string][]string, len(allow))
	for _, c := range allow {
		if v, ok := f.cells[c]; ok {
			cells[c] = v
			continue
		}
		cells[c] = make([]string, len(f.index))
	}
	f.columns = append([]string(nil), allow...)
	f.cells = cells
}

// Fill replaces blank cells of cols with value; no cols means every column.
func (f *Frame) Fill(value string, cols ...string) {
	if len(cols) == 0 {
		cols = f.columns
	}
	for _, c := range cols {
		col := f.cells[c]
		for i, v := range col {
			if strings.TrimSpace(v) == "" {
				col[i] = value
			}
		}
	}
}

// Keys returns the first and last absolute row positions holding column col.
func (f *Frame) Keys(col string) (first, last int64, ok bool) {
	if _, has := f.cells[col]; !has || len(f.index) == 0 {
		return 0, 0, false
	}
	return f.index[0], f.index[len(f.index)-1], true
}

// Cell returns the value of col at absolute position pos. Positions are
// appended in increasing order, so windows with gaps are searched by bisection.
func (f *Frame) Cell(col string, pos int64) (string, bool) {
	vals, ok := f.cells[col]
	if !ok || len(f.index) == 0 {
		return "", false
	}
	if i := pos - f.index[0]; i >= 0 && i < int64(len(f.index)) && f.index[i] == pos {
		return vals[i], true
	}
	i, found := slices.BinarySearch(f.index, pos)
	if !found {
		return "", false
	}
	return vals[i], true
}
