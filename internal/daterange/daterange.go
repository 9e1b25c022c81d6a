// Package daterange maps the symbolic range keys used by the analytics screens
// to concrete time windows that end at the moment of resolution.
package daterange

import "time"

// Key is a symbolic range selector such as "last_week".
type Key string

// Known range keys.
const (
	Today     Key = "today"
	Last24Hrs Key = "24hrs"
	LastWeek  Key = "last_week"
	Last30    Key = "30_days"
	LastMonth Key = "last_month"
	Last6Mo   Key = "6_months"
	LastYear  Key = "last_year"
)

// Default is the window used for empty or unknown keys.
const Default = Last30

// Option describes a selectable key for range pickers.
type Option struct {
	Key   Key
	Label string
}

var options = []Option{
	{Today, "Today"},
	{Last24Hrs, "Last 24 hours"},
	{LastWeek, "Last 7 days"},
	{Last30, "Last 30 days"},
	{LastMonth, "Last month"},
	{Last6Mo, "Last 6 months"},
	{LastYear, "Last year"},
}

// Keys returns the known keys in display order.
func Keys() []Option {
	out := make([]Option, len(options))
	copy(out, options)
	return out
}

// Known reports whether k is one of the recognised keys.
func Known(k Key) bool {
	for _, o := range options {
		if o.Key == k {
			return true
		}
	}
	return false
}

// ParseKey converts user input into a Key. Unknown input yields Default.
func ParseKey(s string) Key {
	k := Key(s)
	if Known(k) {
		return k
	}
	return Default
}

// Range is a resolved window. End is always the resolution instant.
type Range struct {
	Start time.Time
	End   time.Time
}

// ISORange is the wire form of a Range as sent to the analytics backend.
type ISORange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// isoLayout matches JavaScript's Date.prototype.toISOString.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// ISO renders both bounds as UTC ISO-8601 strings with millisecond precision.
func (r Range) ISO() ISORange {
	return ISORange{
		StartDate: r.Start.UTC().Format(isoLayout),
		EndDate:   r.End.UTC().Format(isoLayout),
	}
}

// Duration returns the length of the window.
func (r Range) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Previous returns the window of equal length that ends where r starts.
func (r Range) Previous() Range {
	return Range{Start: r.Start.Add(-r.Duration()), End: r.Start}
}

// Resolve computes the window for key ending at now.
//
// "last_month" is an alias of "30_days": a rolling 30 day window, not the
// previous calendar month.
func Resolve(key Key, now time.Time) Range {
	var start time.Time
	switch key {
	case Last24Hrs:
		start = now.Add(-24 * time.Hour)
	case Today:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case LastWeek:
		start = now.AddDate(0, 0, -7)
	case Last6Mo:
		start = now.AddDate(0, -6, 0)
	case LastYear:
		start = now.AddDate(-1, 0, 0)
	default:
		start = now.AddDate(0, 0, -30)
	}
	return Range{Start: start, End: now}
}

// ResolveNow resolves key against the current wall clock.
func ResolveNow(key Key) Range {
	return Resolve(key, time.Now())
}
