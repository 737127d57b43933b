package dto

import (
	"time"

	"github.com/vsinha/bakery-forecast/pkg/domain/entities"
)

// ForecastInput contains the reconciled inputs of one projection
type ForecastInput struct {
	Today       time.Time
	HorizonDays int
	Opening     entities.Inventory
	Completions entities.Schedule
	Consumption entities.Schedule
	ItemNames   map[entities.ItemCode]string
}

// ForecastResult contains the complete output of a projection
type ForecastResult struct {
	Today       time.Time
	HorizonDays int
	Items       []entities.ItemCode
	// Rows are ordered by date, then item code
	Rows []entities.ForecastRow
}

// Shortages returns the rows whose ending quantity is negative, in row order
func (r *ForecastResult) Shortages() []entities.ForecastRow {
	var shortages []entities.ForecastRow
	for _, row := range r.Rows {
		if row.Shortage {
			shortages = append(shortages, row)
		}
	}
	return shortages
}

// RunSummary reports the outcome of a pipeline run
type RunSummary struct {
	RunID        string        `json:"run_id"`
	Today        time.Time     `json:"today"`
	HorizonDays  int           `json:"horizon_days"`
	Policy       string        `json:"inclusion_policy"`
	ItemCount    int           `json:"item_count"`
	DetailRows   int           `json:"detail_rows"`
	ShortageRows int           `json:"shortage_rows"`
	Success      bool          `json:"success"`
	Duration     time.Duration `json:"duration_ns"`
}

// SyncSummary reports the outcome of refreshing a table from the ERP
type SyncSummary struct {
	Table   string `json:"table"`
	Updated int    `json:"updated"`
	Added   int    `json:"added"`
	Skipped int    `json:"skipped"`
}

// PrepareSummary reports the outcome of rewriting the production plan
type PrepareSummary struct {
	Table          string `json:"table"`
	Rows           int    `json:"rows"`
	PiecesComputed int    `json:"pieces_computed"`
	NamesFilled    int    `json:"names_filled"`
	Skipped        int    `json:"skipped"`
	Errors         int    `json:"errors"`
}

// InitSummary reports the tables created or repaired by table initialization
type InitSummary struct {
	Created  []string `json:"created"`
	Repaired []string `json:"repaired"`
}
