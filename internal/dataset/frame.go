// Package dataset holds CSV-shaped tables of raw text cells and the fallible
// parsers used to coerce them.
package dataset

import (
	"slices"
)

// Frame is a rectangular table of text cells with a named header.
// Every record has exactly len(Header) cells.
type Frame struct {
	Header  []string
	Records [][]string

	index map[string]int
}

// New returns an empty frame with the given header.
func New(header ...string) *Frame {
	f := &Frame{Header: slices.Clone(header)}
	f.reindex()
	return f
}

func (f *Frame) reindex() {
	f.index = make(map[string]int, len(f.Header))
	for i, name := range f.Header {
		// first occurrence wins for duplicated header names
		if _, exists := f.index[name]; !exists {
			f.index[name] = i
		}
	}
}

// Len returns the number of records.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Records)
}

// Width returns the number of columns.
func (f *Frame) Width() int {
	if f == nil {
		return 0
	}
	return len(f.Header)
}

// Index returns the position of col, or -1 if it is absent.
func (f *Frame) Index(col string) int {
	if f == nil {
		return -1
	}
	if f.index == nil {
		f.reindex()
	}
	if i, ok := f.index[col]; ok {
		return i
	}
	return -1
}

// Has reports whether col is present.
func (f *Frame) Has(col string) bool {
	return f.Index(col) >= 0
}

// Value returns the cell at (row, col). ok is false when the column is absent.
func (f *Frame) Value(row int, col string) (string, bool) {
	i := f.Index(col)
	if i < 0 {
		return "", false
	}
	return f.Records[row][i], true
}

// Get returns the cell at (row, col), or "" when the column is absent.
func (f *Frame) Get(row int, col string) string {
	v, _ := f.Value(row, col)
	return v
}

// Column returns a copy of the named column.
func (f *Frame) Column(col string) ([]string, bool) {
	i := f.Index(col)
	if i < 0 {
		return nil, false
	}
	out := make([]string, len(f.Records))
	for r, rec := range f.Records {
		out[r] = rec[i]
	}
	return out, true
}

// Append adds a record, padding or truncating it to the header width.
func (f *Frame) Append(record []string) {
	width := len(f.Header)
	row := make([]string, width)
	copy(row, record)
	f.Records = append(f.Records, row)
}

// Filter returns a new frame holding the records for which keep returns true.
// Records are shared with the receiver, not copied.
func (f *Frame) Filter(keep func(row int) bool) *Frame {
	out := New(f.Header...)
	for r, rec := range f.Records {
		if keep(r) {
			out.Records = append(out.Records, rec)
		}
	}
	return out
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	out := New(f.Header...)
	out.Records = make([][]string, len(f.Records))
	for r, rec := range f.Records {
		out.Records[r] = slices.Clone(rec)
	}
	return out
}

// ValueCounts counts the distinct values of col in order of first appearance.
func (f *Frame) ValueCounts(col string) ([]string, map[string]int) {
	i := f.Index(col)
	if i < 0 {
		return nil, nil
	}
	counts := make(map[string]int)
	var order []string
	for _, rec := range f.Records {
		v := rec[i]
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}
	return order, counts
}
