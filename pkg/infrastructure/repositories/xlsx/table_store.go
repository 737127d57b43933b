// Package xlsx stores tables as worksheets of a single Excel workbook.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/vsinha/bakery-forecast/pkg/domain/dates"
	"github.com/vsinha/bakery-forecast/pkg/domain/entities"
	"github.com/vsinha/bakery-forecast/pkg/domain/repositories"
)

const (
	defaultSheet = "Sheet1"
	scratchSheet = "_replacing"
)

// TableStore maps each table to one worksheet of the workbook at path
type TableStore struct {
	path string
	mu   sync.Mutex
}

// NewTableStore creates a store over the workbook at path. The file is created on first write.
func NewTableStore(path string) *TableStore {
	return &TableStore{path: path}
}

// Verify interface compliance
var _ repositories.TableStore = (*TableStore)(nil)

// open returns the workbook, or a new one when the file does not exist yet
func (s *TableStore) open() (*excelize.File, bool, error) {
	f, err := excelize.OpenFile(s.path)
	if err == nil {
		return f, false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return excelize.NewFile(), true, nil
	}
	return nil, false, fmt.Errorf("failed to open workbook %s: %w", s.path, err)
}

// ReadTable returns the rows of the named worksheet
func (s *TableStore) ReadTable(ctx context.Context, name string) (*entities.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, created, err := s.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if created {
		return nil, fmt.Errorf("%w: %s", repositories.ErrTableNotFound, name)
	}
	if idx, err := f.GetSheetIndex(name); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %s", repositories.ErrTableNotFound, name)
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %s: %w", name, err)
	}
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %s: %w", name, err)
	}

	// Formatted cells display rounded numbers or locale dates; use the stored value
	// for numbers and YYYY/MM/DD for dates
	for r, row := range rows {
		for c, display := range row {
			if r >= len(raw) || c >= len(raw[r]) || raw[r][c] == display {
				continue
			}
			if day, ok := dateCell(f, name, c+1, r+1, raw[r][c]); ok {
				row[c] = day
			} else if _, err := strconv.ParseFloat(raw[r][c], 64); err == nil {
				row[c] = raw[r][c]
			}
		}
	}
	return entities.TableFromRecords(rows), nil
}

// dateCell converts a date-typed or date-formatted cell to YYYY/MM/DD
func dateCell(f *excelize.File, sheet string, col, row int, raw string) (string, bool) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", false
	}

	if kind, err := f.GetCellType(sheet, cell); err == nil && kind == excelize.CellTypeDate {
		day, err := dates.Parse(raw)
		if err != nil {
			return "", false
		}
		return dates.Format(day), true
	}

	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil || styleID == 0 {
		return "", false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || !isDateFormat(style) {
		return "", false
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", false
	}
	day, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return "", false
	}
	return dates.Format(day), true
}

// builtinDateFormats are the built-in number format ids that carry a calendar date
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

func isDateFormat(style *excelize.Style) bool {
	if style == nil {
		return false
	}
	if style.CustomNumFmt == nil {
		return builtinDateFormats[style.NumFmt]
	}

	// Drop bracketed sections ([Red], [$-404]) and quoted literals before looking for date tokens
	var b strings.Builder
	depth, quoted := 0, false
	for _, r := range strings.ToLower(*style.CustomNumFmt) {
		switch {
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '[':
			depth++
		case r == ']' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	format := b.String()
	return strings.ContainsAny(format, "yd") || (strings.Contains(format, "m") && !strings.ContainsAny(format, "hs"))
}

// WriteTable rebuilds the worksheet in memory and saves the workbook through a temp file
func (s *TableStore) WriteTable(ctx context.Context, name string, table *entities.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, created, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := replaceSheet(f, name); err != nil {
		return err
	}
	if created && name != defaultSheet {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("failed to drop default worksheet: %w", err)
		}
	}

	for i, record := range table.Records() {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := append([]string(nil), record...)
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, name, err)
		}
	}

	return s.save(f)
}

// replaceSheet leaves an empty worksheet called name in the workbook
func replaceSheet(f *excelize.File, name string) error {
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return fmt.Errorf("invalid worksheet name %q: %w", name, err)
	}
	if idx < 0 {
		_, err := f.NewSheet(name)
		return err
	}

	// A workbook cannot lose its last sheet, so rename the old one aside first
	if err := f.SetSheetName(name, scratchSheet); err != nil {
		return fmt.Errorf("failed to rename worksheet %s: %w", name, err)
	}
	newIdx, err := f.NewSheet(name)
	if err != nil {
		return fmt.Errorf("failed to create worksheet %s: %w", name, err)
	}
	f.SetActiveSheet(newIdx)
	if err := f.DeleteSheet(scratchSheet); err != nil {
		return fmt.Errorf("failed to drop old worksheet %s: %w", name, err)
	}
	return nil
}

func (s *TableStore) save(f *excelize.File) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".workbook-*.xlsx")
	if err != nil {
		return fmt.Errorf("failed to create temp workbook: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	if err := f.SaveAs(tmpName); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace workbook %s: %w", s.path, err)
	}
	return nil
}

// ListTables returns the worksheet names of the workbook, sorted
func (s *TableStore) ListTables(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, created, err := s.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if created {
		return nil, nil
	}

	names := f.GetSheetList()
	sort.Strings(names)
	return names, nil
}
