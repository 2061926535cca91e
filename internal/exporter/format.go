package exporter

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// formatQuantity renders a quantity with at most 2 decimals and no trailing zeros
func formatQuantity(f float64) string {
	return decimal.NewFromFloat(f).Round(2).String()
}

// formatCell renders a report cell for CSV output
func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return formatQuantity(t)
	case int:
		return fmt.Sprintf("%d", t)
	default:
		return fmt.Sprint(t)
	}
}
