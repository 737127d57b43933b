// Package sheets stores tables as worksheets of a Google Sheets spreadsheet.
package sheets

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/vsinha/bakery-forecast/pkg/domain/entities"
	"github.com/vsinha/bakery-forecast/pkg/domain/repositories"
)

// valueInputOption lets the spreadsheet parse numbers and dates the way a person typing them would
const valueInputOption = "USER_ENTERED"

// TableStore maps each table to one worksheet of a spreadsheet
type TableStore struct {
	srv           *gsheets.Service
	spreadsheetID string
}

// NewTableStore connects to the spreadsheet. Without options, Application Default Credentials are used.
func NewTableStore(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*TableStore, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id cannot be empty")
	}
	scoped := append([]option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}, opts...)
	srv, err := gsheets.NewService(ctx, scoped...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &TableStore{srv: srv, spreadsheetID: spreadsheetID}, nil
}

// CredentialsFile reads a service-account key file into a client option
func CredentialsFile(path string) (option.ClientOption, error) {
	credJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file %s: %w", path, err)
	}
	return option.WithCredentialsJSON(credJSON), nil
}

// Verify interface compliance
var _ repositories.TableStore = (*TableStore)(nil)

// sheetRange quotes a worksheet title for A1 notation
func sheetRange(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func (s *TableStore) titles(ctx context.Context) (map[string]bool, error) {
	spreadsheet, err := s.srv.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet %s: %w", s.spreadsheetID, err)
	}

	titles := make(map[string]bool, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			titles[sheet.Properties.Title] = true
		}
	}
	return titles, nil
}

func (s *TableStore) values(ctx context.Context, name string) ([][]string, error) {
	resp, err := s.srv.Spreadsheets.Values.Get(s.spreadsheetID, sheetRange(name)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %s: %w", name, err)
	}

	records := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		records[i] = make([]string, len(row))
		for j, cell := range row {
			records[i][j] = fmt.Sprint(cell)
		}
	}
	return records, nil
}

// ReadTable reads every value of the named worksheet
func (s *TableStore) ReadTable(ctx context.Context, name string) (*entities.Table, error) {
	titles, err := s.titles(ctx)
	if err != nil {
		return nil, err
	}
	if !titles[name] {
		return nil, fmt.Errorf("%w: %s", repositories.ErrTableNotFound, name)
	}

	records, err := s.values(ctx, name)
	if err != nil {
		return nil, err
	}
	return entities.TableFromRecords(records), nil
}

// WriteTable replaces the worksheet contents with a single update call. Cells of the
// previous contents outside the new table are overwritten with blanks in the same call.
func (s *TableStore) WriteTable(ctx context.Context, name string, table *entities.Table) error {
	titles, err := s.titles(ctx)
	if err != nil {
		return err
	}

	var previous [][]string
	if titles[name] {
		if previous, err = s.values(ctx, name); err != nil {
			return err
		}
	} else if err := s.addSheet(ctx, name); err != nil {
		return err
	}

	values := blankPadded(table.Records(), previous)
	_, err = s.srv.Spreadsheets.Values.Update(s.spreadsheetID, sheetRange(name)+"!A1", &gsheets.ValueRange{Values: values}).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write worksheet %s: %w", name, err)
	}
	return nil
}

func (s *TableStore) addSheet(ctx context.Context, name string) error {
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{Title: name},
			},
		}},
	}
	if _, err := s.srv.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to add worksheet %s: %w", name, err)
	}
	return nil
}

// ListTables returns the worksheet titles, sorted
func (s *TableStore) ListTables(ctx context.Context) ([]string, error) {
	titles, err := s.titles(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(titles))
	for title := range titles {
		names = append(names, title)
	}
	sort.Strings(names)
	return names, nil
}

// blankPadded returns records as a rectangle covering both records and previous,
// filling uncovered cells with empty strings
func blankPadded(records, previous [][]string) [][]interface{} {
	rows, cols := len(records), 0
	if len(previous) > rows {
		rows = len(previous)
	}
	for _, r := range records {
		if len(r) > cols {
			cols = len(r)
		}
	}
	for _, r := range previous {
		if len(r) > cols {
			cols = len(r)
		}
	}

	values := make([][]interface{}, rows)
	for i := range values {
		values[i] = make([]interface{}, cols)
		for j := range values[i] {
			values[i][j] = ""
		}
		if i < len(records) {
			for j, cell := range records[i] {
				values[i][j] = cell
			}
		}
	}
	return values
}
