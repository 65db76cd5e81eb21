package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatUSD renders an amount the way en-US currency formatting does: $1,234.56.
func FormatUSD(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	fixed := amount.Abs().StringFixed(2)

	intPart, decPart, _ := strings.Cut(fixed, ".")
	out := "$" + groupThousands(intPart) + "." + decPart
	if negative {
		out = "-" + out
	}
	return out
}

// FormatUSDFloat is FormatUSD for float measures.
func FormatUSDFloat(amount float64) string {
	return FormatUSD(decimal.NewFromFloat(amount))
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	return groupThousands(fmt.Sprintf("%d", n))
}

// FormatNumber prints whole values without decimals and the rest with two.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return FormatInt(int(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// LabelForDimension capitalizes a dimension key for display.
func LabelForDimension(dimension string) string {
	if dimension == "" {
		return ""
	}
	return strings.ToUpper(dimension[:1]) + strings.ReplaceAll(dimension[1:], "_", " ")
}

// LabelForAggregation returns a human-readable label for an aggregation.
func LabelForAggregation(aggregation string) string {
	switch aggregation {
	case "sum":
		return "Amount"
	case "count":
		return "Count"
	case "avg":
		return "Average"
	case "max":
		return "Maximum"
	case "min":
		return "Minimum"
	default:
		return "Value"
	}
}
