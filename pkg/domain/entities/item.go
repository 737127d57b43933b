package entities

import (
	"fmt"
	"strings"
)

// ItemCode represents a canonical item identifier (trimmed, upper-cased, base-unit suffix)
type ItemCode string

// BoxCode represents a gift-box identifier used by the BOM and the assembly plan
type BoxCode string

// ItemType represents the type tag of a row in the item reference table
type ItemType int

const (
	UnknownType ItemType = iota
	FinishedItem
	GiftBox
	ProductionLine
)

// String method for ItemType enum
func (t ItemType) String() string {
	switch t {
	case FinishedItem:
		return "Item"
	case GiftBox:
		return "Box"
	case ProductionLine:
		return "Line"
	default:
		return "Unknown"
	}
}

// ParseItemType maps a reference-table type tag to an ItemType.
// Both the English tags and the legacy sheet tags are accepted.
func ParseItemType(tag string) ItemType {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "item", "cookie", "餅乾":
		return FinishedItem
	case "box", "禮盒":
		return GiftBox
	case "line", "產線":
		return ProductionLine
	default:
		return UnknownType
	}
}

// Item represents an entry of the item reference table
type Item struct {
	Type         ItemType
	Code         ItemCode
	Name         string
	RawWeight    string
	CookedWeight string
	Note         string
}

// NewItem creates a validated Item
func NewItem(itemType ItemType, code ItemCode, name string) (*Item, error) {
	if itemType == UnknownType {
		return nil, fmt.Errorf("item type cannot be unknown")
	}
	if string(code) == "" {
		return nil, fmt.Errorf("item code cannot be empty")
	}

	return &Item{
		Type: itemType,
		Code: code,
		Name: name,
	}, nil
}
