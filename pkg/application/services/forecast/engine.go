package forecast

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/vsinha/bakery-forecast/pkg/application/dto"
	"github.com/vsinha/bakery-forecast/pkg/domain/dates"
	"github.com/vsinha/bakery-forecast/pkg/domain/entities"
)

// Engine projects inventory day by day over the forecast horizon
type Engine struct {
	log logrus.FieldLogger
}

// NewEngine creates a new forecast engine
func NewEngine(log logrus.FieldLogger) *Engine {
	return &Engine{log: log}
}

// Project carries each item's ending quantity forward as the next day's opening quantity,
// applying completions and consumption on their dates. The input maps are not modified.
func (e *Engine) Project(input dto.ForecastInput) (*dto.ForecastResult, error) {
	if input.HorizonDays <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d days", input.HorizonDays)
	}

	today := dates.Normalize(input.Today)
	current := input.Opening.Copy()
	items := entities.ItemCodes(input.Opening, input.Completions, input.Consumption)

	result := &dto.ForecastResult{
		Today:       today,
		HorizonDays: input.HorizonDays,
		Items:       items,
		Rows:        make([]entities.ForecastRow, 0, len(items)*input.HorizonDays),
	}

	names := e.resolveNames(items, input.ItemNames)
	for _, date := range dates.Range(today, input.HorizonDays) {
		for _, code := range items {
			row := entities.NewForecastRow(
				date,
				code,
				names[code],
				current.Get(code),
				input.Completions.Get(date, code),
				input.Consumption.Get(date, code),
			)
			current[code] = row.Ending
			result.Rows = append(result.Rows, row)
		}
	}

	e.log.WithFields(logrus.Fields{
		"items":     len(items),
		"days":      input.HorizonDays,
		"rows":      len(result.Rows),
		"shortages": len(result.Shortages()),
	}).Info("projected inventory")
	return result, nil
}

// resolveNames looks up display names once per item, warning for each unnamed item
func (e *Engine) resolveNames(items []entities.ItemCode, known map[entities.ItemCode]string) map[entities.ItemCode]string {
	names := make(map[entities.ItemCode]string, len(items))
	for _, code := range items {
		name, ok := known[code]
		if !ok {
			e.log.WithField("item_code", string(code)).Warn("item has no name in the reference table")
		}
		names[code] = name
	}
	return names
}
