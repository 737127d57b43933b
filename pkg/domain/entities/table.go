package entities

import "strings"

// Table is a named tabular sheet: one header row followed by data rows
type Table struct {
	Header []string
	Rows   [][]string
}

// NewTable creates a table with the given header
func NewTable(header ...string) *Table {
	return &Table{Header: append([]string(nil), header...)}
}

// TableFromRecords splits raw records into header and rows. Empty input yields an empty table.
func TableFromRecords(records [][]string) *Table {
	if len(records) == 0 {
		return &Table{}
	}
	return &Table{
		Header: records[0],
		Rows:   records[1:],
	}
}

// Records returns header followed by rows
func (t *Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, t.Header)
	return append(records, t.Rows...)
}

// Append adds a data row
func (t *Table) Append(row ...string) {
	t.Rows = append(t.Rows, row)
}

// ColumnIndex returns the index of the first header matching any of the names,
// compared case-insensitively, or -1 when none matches
func (t *Table) ColumnIndex(names ...string) int {
	for _, name := range names {
		want := strings.ToLower(strings.TrimSpace(name))
		for i, h := range t.Header {
			if strings.ToLower(strings.TrimSpace(h)) == want {
				return i
			}
		}
	}
	return -1
}

// Column describes how to locate a column: by header names, else by position
type Column struct {
	Names    []string
	Fallback int
}

// Index resolves the column against a table header. Returns -1 when the fallback is negative
// and no header matches.
func (c Column) Index(t *Table) int {
	if idx := t.ColumnIndex(c.Names...); idx >= 0 {
		return idx
	}
	return c.Fallback
}

// Cell returns the trimmed cell at idx, or "" when the row is too short or idx is negative
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
