// Package sqlite stores tables in a SQLite database.
//
// Headers and rows are kept as JSON arrays so that arbitrary sheet headers,
// including duplicates and non-ASCII names, round-trip unchanged.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vsinha/bakery-forecast/pkg/domain/entities"
	"github.com/vsinha/bakery-forecast/pkg/domain/repositories"

	_ "modernc.org/sqlite"
)

// TableStore persists tables in two relations: table headers and ordered rows
type TableStore struct {
	db *sql.DB
}

// Open opens (or creates) the database file at path
func Open(path string) (*TableStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	store, err := NewTableStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewTableStore wraps an existing connection and creates the schema if needed
func NewTableStore(db *sql.DB) (*TableStore, error) {
	s := &TableStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate sqlite table store: %w", err)
	}
	return s, nil
}

// Verify interface compliance
var _ repositories.TableStore = (*TableStore)(nil)

func (s *TableStore) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sheet_tables (
			name TEXT PRIMARY KEY,
			header TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sheet_rows (
			table_name TEXT NOT NULL,
			row_no INTEGER NOT NULL,
			cells TEXT NOT NULL,
			PRIMARY KEY (table_name, row_no)
		)`,
	}
	for _, query := range queries {
		if _, err := s.db.ExecContext(context.Background(), query); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database
func (s *TableStore) Close() error {
	return s.db.Close()
}

// ReadTable loads the header and ordered rows of a table
func (s *TableStore) ReadTable(ctx context.Context, name string) (*entities.Table, error) {
	var headerJSON string
	err := s.db.QueryRowContext(ctx, `SELECT header FROM sheet_tables WHERE name = ?`, name).Scan(&headerJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repositories.ErrTableNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", name, err)
	}

	table := &entities.Table{}
	if err := json.Unmarshal([]byte(headerJSON), &table.Header); err != nil {
		return nil, fmt.Errorf("corrupt header for table %s: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT cells FROM sheet_rows WHERE table_name = ? ORDER BY row_no`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var cellsJSON string
		if err := rows.Scan(&cellsJSON); err != nil {
			return nil, err
		}
		var cells []string
		if err := json.Unmarshal([]byte(cellsJSON), &cells); err != nil {
			return nil, fmt.Errorf("corrupt row in table %s: %w", name, err)
		}
		table.Rows = append(table.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// WriteTable replaces a table inside one transaction
func (s *TableStore) WriteTable(ctx context.Context, name string, table *entities.Table) (err error) {
	headerJSON, err := json.Marshal(nonNil(table.Header))
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM sheet_rows WHERE table_name = ?`, name); err != nil {
		return fmt.Errorf("failed to clear table %s: %w", name, err)
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO sheet_tables (name, header) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET header = excluded.header`,
		name, string(headerJSON)); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO sheet_rows (table_name, row_no, cells) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range table.Rows {
		cellsJSON, mErr := json.Marshal(nonNil(row))
		if mErr != nil {
			err = mErr
			return err
		}
		if _, err = stmt.ExecContext(ctx, name, i, string(cellsJSON)); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit table %s: %w", name, err)
	}
	return nil
}

// ListTables returns all stored table names, sorted
func (s *TableStore) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM sheet_tables ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
