// Package units parses quantities and converts packaged item variants to base units.
package units

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/vsinha/bakery-forecast/pkg/domain/entities"
)

// BaseSuffix is the trailing code character of the base unit ("pieces")
const BaseSuffix = 'C'

// suffixFactors maps a packaging suffix to the number of base units it holds.
// New suffixes must be added here explicitly; anything else counts as factor 1.
var suffixFactors = map[byte]int64{
	'C': 1,
	'D': 2,
	'E': 4,
	'F': 8,
}

var thousandsSeparators = strings.NewReplacer(",", "", "_", "", " ", "")

// ParseQuantity parses a textual quantity such as "1,250", "12.5" or "-300".
// Empty input is zero.
func ParseQuantity(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, nil
	}

	clean := thousandsSeparators.Replace(s)
	qty, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid quantity: %q", raw)
	}
	return qty, nil
}

// ParseQuantityInt parses a quantity and truncates it toward zero
func ParseQuantityInt(raw string) (int64, error) {
	qty, err := ParseQuantity(raw)
	if err != nil {
		return 0, err
	}
	return qty.IntPart(), nil
}

// QuantityOrZero parses a quantity, logging a warning and returning zero when it is unparsable
func QuantityOrZero(log logrus.FieldLogger, raw string, fields logrus.Fields) decimal.Decimal {
	qty, err := ParseQuantity(raw)
	if err != nil {
		log.WithFields(fields).WithField("value", raw).Warn("unparsable quantity, using 0")
		return decimal.Zero
	}
	return qty
}

// CanonicalCode trims and upper-cases a raw item code without touching its suffix
func CanonicalCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ConversionFactor returns how many base units one unit of the code's packaging holds
func ConversionFactor(code string) decimal.Decimal {
	c := CanonicalCode(code)
	if len(c) < 2 {
		return decimal.NewFromInt(1)
	}
	if factor, ok := suffixFactors[c[len(c)-1]]; ok {
		return decimal.NewFromInt(factor)
	}
	return decimal.NewFromInt(1)
}

// NormalizeItemCode rewrites a packaged-variant suffix to the base suffix
func NormalizeItemCode(code string) entities.ItemCode {
	c := CanonicalCode(code)
	if len(c) < 2 {
		return entities.ItemCode(c)
	}
	if _, ok := suffixFactors[c[len(c)-1]]; ok {
		return entities.ItemCode(c[:len(c)-1] + string(BaseSuffix))
	}
	return entities.ItemCode(c)
}

// Normalize converts a (code, quantity) pair to the canonical code and base-unit quantity.
// Code and quantity must always be converted together.
func Normalize(code string, qty decimal.Decimal) (entities.ItemCode, decimal.Decimal) {
	return NormalizeItemCode(code), qty.Mul(ConversionFactor(code))
}
