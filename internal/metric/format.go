package metric

import (
	"math"
	"strconv"

	"github.com/simp-lee/merchantdash/internal/pkg"
)

// DefaultCurrencySymbol is the naira sign.
const DefaultCurrencySymbol = "₦"

// FormatValue renders v with Nigerian English digit grouping, prefixed with
// symbol when the metric is money-valued.
func FormatValue(v float64, currency bool, symbol string) string {
	if currency {
		return pkg.FormatMoney(v, symbol)
	}
	return pkg.FormatNumber(v)
}

// FormatChange returns the absolute change rounded to one decimal place and
// its direction. Zero counts as positive.
func FormatChange(raw float64) (string, ChangeType) {
	kind := Positive
	if raw < 0 {
		kind = Negative
	}
	rounded := math.Round(math.Abs(raw)*10) / 10
	return strconv.FormatFloat(rounded, 'f', 1, 64), kind
}
