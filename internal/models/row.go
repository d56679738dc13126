// Package models defines the data structures shared by the lead pipeline stages.
package models

// Column is one cell of a source row, keyed by the vendor-native header label.
type Column struct {
	Label string
	Value string
}

// RawRow is one data line of a vendor export before column mapping.
type RawRow struct {
	Columns []Column
	Line    int // 1-based physical line in the export, the header is line 1
}

// Get returns the value stored under label. When a header repeats a label the
// last occurrence wins.
func (r RawRow) Get(label string) (string, bool) {
	value, found := "", false

	for _, c := range r.Columns {
		if c.Label == label {
			value, found = c.Value, true
		}
	}

	return value, found
}
