package common

import (
	"fmt"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DisplayCurrency is the currency all holdings are reported in.
const DisplayCurrency = money.CNY

// Round2 rounds v to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Round4 rounds v to 4 decimal places (NAV precision).
func Round4(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(4).Float64()
	return f
}

// FormatCNY renders an amount with the CNY grapheme, e.g. "1,649.77 元".
func FormatCNY(v float64) string {
	minor := decimal.NewFromFloat(v).Round(2).Shift(2).IntPart()
	return money.New(minor, DisplayCurrency).Display()
}

// FormatSignedPct renders a percentage with explicit sign, e.g. "+1.25%".
func FormatSignedPct(v float64) string {
	return fmt.Sprintf("%+.2f%%", Round2(v))
}

// FormatSignedAmount renders a value with explicit sign and 2 decimals.
func FormatSignedAmount(v float64) string {
	return fmt.Sprintf("%+.2f", Round2(v))
}

// FormatLargeNumber abbreviates volumes and turnover in Chinese units:
// >= 1e8 as "x.xx 亿", >= 1e4 as "x.xx 万", otherwise the plain value.
func FormatLargeNumber(v float64) string {
	switch {
	case math.Abs(v) >= 1e8:
		return fmt.Sprintf("%.2f 亿", v/1e8)
	case math.Abs(v) >= 1e4:
		return fmt.Sprintf("%.2f 万", v/1e4)
	default:
		return decimal.NewFromFloat(v).String()
	}
}
