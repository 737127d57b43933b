package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InclusionPolicy decides which production batches contribute completions
type InclusionPolicy int

const (
	// AutoPolicy resolves to ExcludeToday when a WIP source is merged, TrailingWindow otherwise
	AutoPolicy InclusionPolicy = iota
	// ExcludeToday drops batches starting today; they are already counted as work in progress
	ExcludeToday
	// TrailingWindow keeps batches whose start date falls within the last N days or later
	TrailingWindow
)

// String method for InclusionPolicy enum
func (p InclusionPolicy) String() string {
	switch p {
	case AutoPolicy:
		return "auto"
	case ExcludeToday:
		return "exclude-today"
	case TrailingWindow:
		return "trailing-window"
	default:
		return "unknown"
	}
}

// ParseInclusionPolicy parses the configuration spelling of a policy
func ParseInclusionPolicy(s string) (InclusionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return AutoPolicy, nil
	case "exclude-today", "exclude_today":
		return ExcludeToday, nil
	case "trailing-window", "trailing_window":
		return TrailingWindow, nil
	default:
		return AutoPolicy, fmt.Errorf("invalid inclusion policy: %s (expected: auto, exclude-today, or trailing-window)", s)
	}
}

// Resolve returns the concrete policy for a run
func (p InclusionPolicy) Resolve(hasWIPSource bool) InclusionPolicy {
	if p != AutoPolicy {
		return p
	}
	if hasWIPSource {
		return ExcludeToday
	}
	return TrailingWindow
}

// ForecastRow is the projection of one item on one day
type ForecastRow struct {
	Date        time.Time       `json:"date"`
	ItemCode    ItemCode        `json:"item_code"`
	ItemName    string          `json:"item_name"`
	Opening     decimal.Decimal `json:"opening_qty"`
	Required    decimal.Decimal `json:"required_qty"`
	Incoming    decimal.Decimal `json:"incoming_qty"`
	Ending      decimal.Decimal `json:"ending_qty"`
	Shortage    bool            `json:"shortage"`
	ShortageQty decimal.Decimal `json:"shortage_qty"`
}

// NewForecastRow derives ending, shortage flag and shortage quantity from the day's flows
func NewForecastRow(date time.Time, code ItemCode, name string, opening, incoming, required decimal.Decimal) ForecastRow {
	ending := opening.Add(incoming).Sub(required)
	shortageQty := decimal.Zero
	if ending.IsNegative() {
		shortageQty = ending.Neg()
	}

	return ForecastRow{
		Date:        date,
		ItemCode:    code,
		ItemName:    name,
		Opening:     opening,
		Required:    required,
		Incoming:    incoming,
		Ending:      ending,
		Shortage:    ending.IsNegative(),
		ShortageQty: shortageQty,
	}
}
