package reconcile

import (
	"context"
	"errors"

	"github.com/vsinha/bakery-forecast/pkg/domain/entities"
	"github.com/vsinha/bakery-forecast/pkg/domain/repositories"
	"github.com/vsinha/bakery-forecast/pkg/domain/schema"
	"github.com/vsinha/bakery-forecast/pkg/domain/units"
)

// ReadItemIndex returns every typed row of the item reference table in table order
func (r *Reconciler) ReadItemIndex(ctx context.Context) ([]entities.Item, error) {
	name := r.opts.Tables.Index
	table, err := r.readRequired(ctx, name)
	if err != nil {
		return nil, err
	}

	typeIdx, codeIdx := schema.IndexType.Index(table), schema.IndexCode.Index(table)
	nameIdx := schema.IndexName.Index(table)
	rawIdx, cookedIdx, noteIdx := schema.IndexRawWeight.Index(table), schema.IndexCookedWeight.Index(table), schema.IndexNote.Index(table)

	var items []entities.Item
	for i, row := range table.Rows {
		if blank(row) {
			continue
		}
		item, err := entities.NewItem(
			entities.ParseItemType(entities.Cell(row, typeIdx)),
			entities.ItemCode(units.CanonicalCode(entities.Cell(row, codeIdx))),
			entities.Cell(row, nameIdx),
		)
		if err != nil {
			r.log.WithFields(rowFields(name, i)).Debugf("ignoring index row: %v", err)
			continue
		}
		item.RawWeight = entities.Cell(row, rawIdx)
		item.CookedWeight = entities.Cell(row, cookedIdx)
		item.Note = entities.Cell(row, noteIdx)
		items = append(items, *item)
	}
	return items, nil
}

// ReadItemNames returns display names of finished items keyed by canonical code.
// A missing reference table yields an empty map and a warning.
func (r *Reconciler) ReadItemNames(ctx context.Context) (map[entities.ItemCode]string, error) {
	names := make(map[entities.ItemCode]string)

	items, err := r.ReadItemIndex(ctx)
	if errors.Is(err, repositories.ErrTableNotFound) {
		r.log.WithField("table", r.opts.Tables.Index).Warn("item reference table not found, names will be empty")
		return names, nil
	}
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if item.Type != entities.FinishedItem {
			continue
		}
		code := units.NormalizeItemCode(string(item.Code))
		if _, exists := names[code]; !exists {
			names[code] = item.Name
		}
	}
	r.log.WithField("items", len(names)).Info("read item names")
	return names, nil
}

// FinishedItemCodes returns the set of finished item codes as written in the reference table
func FinishedItemCodes(items []entities.Item) map[string]bool {
	codes := make(map[string]bool, len(items))
	for _, item := range items {
		if item.Type == entities.FinishedItem {
			codes[string(item.Code)] = true
		}
	}
	return codes
}
