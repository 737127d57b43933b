package repositories

import (
	"context"
	"errors"

	"github.com/vsinha/bakery-forecast/pkg/domain/entities"
)

// ErrTableNotFound is returned by ReadTable when the named table does not exist
var ErrTableNotFound = errors.New("table not found")

// TableStore provides access to named tabular sheets
type TableStore interface {
	// ReadTable returns the header and rows of a table, or ErrTableNotFound
	ReadTable(ctx context.Context, name string) (*entities.Table, error)

	// WriteTable replaces the table contents entirely, creating the table when missing.
	// Readers never observe a partially written table.
	WriteTable(ctx context.Context, name string, table *entities.Table) error

	// ListTables returns the names of existing tables, sorted
	ListTables(ctx context.Context) ([]string, error)
}
