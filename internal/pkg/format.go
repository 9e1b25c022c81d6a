package pkg

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DisplayLocale is the locale used for digit grouping in every rendered number.
var DisplayLocale = language.Make("en-NG")

// FormatNumber renders v with locale digit grouping and at most two decimals.
func FormatNumber(v float64) string {
	p := message.NewPrinter(DisplayLocale)
	return p.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// FormatMoney renders v as FormatNumber prefixed with symbol.
func FormatMoney(v float64, symbol string) string {
	return symbol + FormatNumber(v)
}

// FormatDay renders t as "02 Jan 2006", or "-" for the zero time.
func FormatDay(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}

// FormatDateTime renders t as "02 Jan 2006, 15:04", or "-" for the zero time.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006, 15:04")
}
