package entities

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// BOMEntry represents a single line of a gift-box recipe
type BOMEntry struct {
	BoxCode   BoxCode
	ItemCode  ItemCode
	QtyPerBox decimal.Decimal
}

// NewBOMEntry creates a validated BOMEntry
func NewBOMEntry(boxCode BoxCode, itemCode ItemCode, qtyPerBox decimal.Decimal) (*BOMEntry, error) {
	if string(boxCode) == "" {
		return nil, fmt.Errorf("box code cannot be empty")
	}
	if string(itemCode) == "" {
		return nil, fmt.Errorf("item code cannot be empty")
	}
	if !qtyPerBox.IsPositive() {
		return nil, fmt.Errorf("quantity per box must be positive, got %s", qtyPerBox.String())
	}

	return &BOMEntry{
		BoxCode:   boxCode,
		ItemCode:  itemCode,
		QtyPerBox: qtyPerBox,
	}, nil
}

// BOM maps a box code to the per-box quantity of each item it contains
type BOM map[BoxCode]map[ItemCode]decimal.Decimal

// Add accumulates an entry into the BOM. Entries for the same box and item sum.
func (b BOM) Add(entry BOMEntry) {
	components, ok := b[entry.BoxCode]
	if !ok {
		components = make(map[ItemCode]decimal.Decimal)
		b[entry.BoxCode] = components
	}
	components[entry.ItemCode] = components[entry.ItemCode].Add(entry.QtyPerBox)
}

// Components returns the recipe of a box sorted by item code
func (b BOM) Components(boxCode BoxCode) ([]BOMEntry, bool) {
	components, ok := b[boxCode]
	if !ok {
		return nil, false
	}

	entries := make([]BOMEntry, 0, len(components))
	for code, qty := range components {
		entries = append(entries, BOMEntry{BoxCode: boxCode, ItemCode: code, QtyPerBox: qty})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ItemCode < entries[j].ItemCode
	})
	return entries, true
}
