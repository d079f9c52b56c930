// Package money converts integer cents into euro amounts.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// EUR converts cents to a decimal euro amount.
func EUR(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(hundred)
}

// EURFloat is EUR as a float64, for flat event payloads.
func EURFloat(cents int64) float64 {
	f, _ := EUR(cents).Float64()
	return f
}

// Format renders cents as "€12.34".
func Format(cents int64) string {
	amount := EUR(cents)
	if amount.IsNegative() {
		return "-€" + amount.Abs().StringFixed(2)
	}
	return "€" + amount.StringFixed(2)
}

// FormatAny renders a payload amount in euros, or fallback when absent or unparsable.
func FormatAny(value any, fallback string) string {
	var amount decimal.Decimal
	switch v := value.(type) {
	case float64:
		amount = decimal.NewFromFloat(v)
	case float32:
		amount = decimal.NewFromFloat32(v)
	case int:
		amount = decimal.NewFromInt(int64(v))
	case int64:
		amount = decimal.NewFromInt(v)
	case string:
		parsed, err := decimal.NewFromString(v)
		if err != nil {
			return fallback
		}
		amount = parsed
	default:
		return fallback
	}
	return "€" + amount.StringFixed(2)
}
