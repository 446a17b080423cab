package utils

import (
	"github.com/shopspring/decimal"
)

// FormatAmount formats a monetary amount to two decimal places for display.
// Example: amount 12.3456 returns "12.35"
func FormatAmount(amount decimal.Decimal) string {
	return amount.Round(2).StringFixed(2)
}
