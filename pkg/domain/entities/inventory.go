package entities

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Inventory maps an item to a quantity in base units. Negative values are a known deficit.
type Inventory map[ItemCode]decimal.Decimal

// Add accumulates a quantity for an item
func (inv Inventory) Add(code ItemCode, qty decimal.Decimal) {
	inv[code] = inv[code].Add(qty)
}

// Get returns the quantity for an item, zero when unseen
func (inv Inventory) Get(code ItemCode) decimal.Decimal {
	return inv[code]
}

// Copy returns an independent copy of the inventory
func (inv Inventory) Copy() Inventory {
	out := make(Inventory, len(inv))
	for code, qty := range inv {
		out[code] = qty
	}
	return out
}

// Total returns the sum of all quantities
func (inv Inventory) Total() decimal.Decimal {
	total := decimal.Zero
	for _, qty := range inv {
		total = total.Add(qty)
	}
	return total
}

// Schedule maps a calendar day to per-item quantities.
// Keys must be day-normalized (midnight UTC) so lookups by date match.
type Schedule map[time.Time]map[ItemCode]decimal.Decimal

// Add accumulates a quantity for an item on a date
func (s Schedule) Add(date time.Time, code ItemCode, qty decimal.Decimal) {
	day, ok := s[date]
	if !ok {
		day = make(map[ItemCode]decimal.Decimal)
		s[date] = day
	}
	day[code] = day[code].Add(qty)
}

// Get returns the quantity for an item on a date, zero when absent
func (s Schedule) Get(date time.Time, code ItemCode) decimal.Decimal {
	day, ok := s[date]
	if !ok {
		return decimal.Zero
	}
	return day[code]
}

// Dates returns the scheduled dates in ascending order
func (s Schedule) Dates() []time.Time {
	dates := make([]time.Time, 0, len(s))
	for date := range s {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
	return dates
}

// Total returns the sum of all scheduled quantities for an item
func (s Schedule) Total(code ItemCode) decimal.Decimal {
	total := decimal.Zero
	for _, day := range s {
		total = total.Add(day[code])
	}
	return total
}

// ItemCodes returns the union of item codes referenced by the inventory and schedules, sorted
func ItemCodes(inv Inventory, schedules ...Schedule) []ItemCode {
	seen := make(map[ItemCode]struct{}, len(inv))
	for code := range inv {
		seen[code] = struct{}{}
	}
	for _, schedule := range schedules {
		for _, day := range schedule {
			for code := range day {
				seen[code] = struct{}{}
			}
		}
	}

	codes := make([]ItemCode, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		return codes[i] < codes[j]
	})
	return codes
}
