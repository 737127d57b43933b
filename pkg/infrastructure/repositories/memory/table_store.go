package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vsinha/bakery-forecast/pkg/domain/entities"
	"github.com/vsinha/bakery-forecast/pkg/domain/repositories"
)

// TableStore provides in-memory table storage
type TableStore struct {
	mu     sync.RWMutex
	tables map[string]*entities.Table
}

// NewTableStore creates a new in-memory table store
func NewTableStore() *TableStore {
	return &TableStore{
		tables: make(map[string]*entities.Table),
	}
}

// Verify interface compliance
var _ repositories.TableStore = (*TableStore)(nil)

// ReadTable returns a copy of the named table
func (s *TableStore) ReadTable(ctx context.Context, name string) (*entities.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	table, exists := s.tables[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", repositories.ErrTableNotFound, name)
	}
	return cloneTable(table), nil
}

// WriteTable replaces the named table with a copy of the given one
func (s *TableStore) WriteTable(ctx context.Context, name string, table *entities.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if table == nil {
		return fmt.Errorf("cannot write nil table %s", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables[name] = cloneTable(table)
	return nil
}

// ListTables returns all table names, sorted
func (s *TableStore) ListTables(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// LoadTable seeds a table from raw records, header first
func (s *TableStore) LoadTable(name string, records [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = cloneTable(entities.TableFromRecords(records))
}

func cloneTable(t *entities.Table) *entities.Table {
	out := &entities.Table{
		Header: append([]string(nil), t.Header...),
		Rows:   make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}
