package erpsync

import (
	"sort"
	"strings"

	"github.com/vsinha/bakery-forecast/pkg/domain/entities"
	"github.com/vsinha/bakery-forecast/pkg/domain/schema"
)

// keyedTable holds a synced table as records in canonical column order.
// The original header is kept on write when every column could be located in it.
type keyedTable struct {
	header  []string
	idx     []int
	records [][]string
	byKey   map[string]int
	keyOf   func(record []string) string
}

func newKeyedTable(existing *entities.Table, s schema.Schema, keyOf func([]string) string) *keyedTable {
	cols := s.Columns
	kt := &keyedTable{
		header: s.Header,
		byKey:  make(map[string]int),
		keyOf:  keyOf,
	}
	if existing == nil {
		return kt
	}

	idx := make([]int, len(cols))
	keep := len(existing.Header) > 0
	for i, col := range cols {
		idx[i] = col.Index(existing)
		if idx[i] < 0 || idx[i] >= len(existing.Header) {
			keep = false
		}
	}
	if keep {
		kt.header = append([]string(nil), existing.Header...)
		kt.idx = idx
	}

	for _, row := range existing.Rows {
		record := make([]string, len(cols))
		empty := true
		for i := range cols {
			record[i] = entities.Cell(row, idx[i])
			if record[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		kt.records = append(kt.records, record)
		if key := keyOf(record); key != "" {
			kt.byKey[key] = len(kt.records) - 1
		}
	}
	return kt
}

// upsert replaces the record with the same key or appends it. Reports whether it replaced.
func (kt *keyedTable) upsert(record []string) bool {
	key := kt.keyOf(record)
	if i, ok := kt.byKey[key]; ok && key != "" {
		kt.records[i] = record
		return true
	}
	kt.records = append(kt.records, record)
	if key != "" {
		kt.byKey[key] = len(kt.records) - 1
	}
	return false
}

func (kt *keyedTable) sortBy(less func(a, b []string) bool) {
	sort.SliceStable(kt.records, func(i, j int) bool {
		return less(kt.records[i], kt.records[j])
	})
}

// table renders the records under the kept or canonical header
func (kt *keyedTable) table() *entities.Table {
	out := entities.NewTable(kt.header...)
	for _, record := range kt.records {
		if kt.idx == nil {
			out.Append(record...)
			continue
		}
		row := make([]string, len(kt.header))
		for i, pos := range kt.idx {
			row[pos] = record[i]
		}
		out.Append(row...)
	}
	return out
}

// joinKey builds an upsert key; rows without an item code have no key
func joinKey(code string, parts ...string) string {
	if code == "" {
		return ""
	}
	parts = append([]string{code}, parts...)
	return strings.Join(parts, "|")
}
