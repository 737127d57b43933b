package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vsinha/bakery-forecast/pkg/domain/entities"
	"github.com/vsinha/bakery-forecast/pkg/domain/repositories"
)

const extension = ".csv"

// utf8BOM is prepended by spreadsheet exports and must not leak into the first header
const utf8BOM = "\ufeff"

// TableStore keeps each table as <dir>/<name>.csv
type TableStore struct {
	dir string
}

// NewTableStore creates a CSV table store rooted at dir, creating the directory if needed
func NewTableStore(dir string) (*TableStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create table directory %s: %w", dir, err)
	}
	return &TableStore{dir: dir}, nil
}

// Verify interface compliance
var _ repositories.TableStore = (*TableStore)(nil)

func (s *TableStore) path(name string) (string, error) {
	if name == "" || filepath.Base(name) != name || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid table name %q", name)
	}
	return filepath.Join(s.dir, name+extension), nil
}

// ReadTable loads a table from its CSV file
func (s *TableStore) ReadTable(ctx context.Context, name string) (*entities.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filename, err := s.path(name)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", repositories.ErrTableNotFound, name)
		}
		return nil, fmt.Errorf("failed to open table file %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", name, err)
	}

	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], utf8BOM)
	}
	return entities.TableFromRecords(records), nil
}

// WriteTable writes the table to a temporary file and renames it over the old one
func (s *TableStore) WriteTable(ctx context.Context, name string, table *entities.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	filename, err := s.path(name)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	if err := writer.WriteAll(table.Records()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s CSV: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file for %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("failed to replace table file %s: %w", filename, err)
	}
	return nil
}

// ListTables returns the names of all CSV files in the directory
func (s *TableStore) ListTables(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list table directory %s: %w", s.dir, err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != extension {
			continue
		}
		names = append(names, strings.TrimSuffix(name, extension))
	}
	sort.Strings(names)
	return names, nil
}
