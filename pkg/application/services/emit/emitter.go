// Package emit writes forecast results back to the table store.
package emit

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vsinha/bakery-forecast/pkg/application/dto"
	"github.com/vsinha/bakery-forecast/pkg/domain/dates"
	"github.com/vsinha/bakery-forecast/pkg/domain/entities"
	"github.com/vsinha/bakery-forecast/pkg/domain/repositories"
	"github.com/vsinha/bakery-forecast/pkg/domain/schema"
)

// Tables names the output tables. An empty Shortage name skips the shortage table.
type Tables struct {
	Detail   string
	Shortage string
}

// Emitter replaces the output tables with a projection
type Emitter struct {
	store  repositories.TableStore
	tables Tables
	log    logrus.FieldLogger
}

// NewEmitter creates a new result emitter
func NewEmitter(store repositories.TableStore, tables Tables, log logrus.FieldLogger) *Emitter {
	return &Emitter{store: store, tables: tables, log: log}
}

// WriteResults replaces the detail table, then the shortage table when configured.
// Each table is built completely before a single write.
func (e *Emitter) WriteResults(ctx context.Context, result *dto.ForecastResult) error {
	detail := DetailTable(result)
	if err := e.store.WriteTable(ctx, e.tables.Detail, detail); err != nil {
		return fmt.Errorf("failed to write detail table %s: %w", e.tables.Detail, err)
	}
	e.log.WithFields(logrus.Fields{"table": e.tables.Detail, "rows": len(detail.Rows)}).Info("wrote forecast detail")

	if e.tables.Shortage == "" {
		return nil
	}

	shortage := ShortageTable(result)
	if err := e.store.WriteTable(ctx, e.tables.Shortage, shortage); err != nil {
		return fmt.Errorf("failed to write shortage table %s: %w", e.tables.Shortage, err)
	}
	e.log.WithFields(logrus.Fields{"table": e.tables.Shortage, "rows": len(shortage.Rows)}).Info("wrote shortage alerts")
	return nil
}

// DetailTable renders every forecast row in engine order
func DetailTable(result *dto.ForecastResult) *entities.Table {
	table := schema.Detail.NewTable()
	for _, row := range result.Rows {
		table.Append(
			dates.Format(row.Date),
			string(row.ItemCode),
			row.ItemName,
			row.Opening.String(),
			row.Required.String(),
			row.Incoming.String(),
			row.Ending.String(),
			yesNo(row.Shortage),
			row.ShortageQty.String(),
		)
	}
	return table
}

// ShortageTable renders only the rows with a negative ending quantity
func ShortageTable(result *dto.ForecastResult) *entities.Table {
	table := schema.Shortage.NewTable()
	for _, row := range result.Shortages() {
		table.Append(
			dates.Format(row.Date),
			string(row.ItemCode),
			row.ItemName,
			row.ShortageQty.String(),
			row.Required.String(),
			row.Opening.String(),
			row.Incoming.String(),
		)
	}
	return table
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
