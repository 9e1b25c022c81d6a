// Package table implements the client-side table engine shared by every record
// screen: filtering, sorting, pagination and row selection over an in-memory
// slice of records.
package table

import (
	"slices"
	"strings"
	"time"
)

// All is the sentinel select value that disables a status or facet predicate.
const All = "all"

// Schema describes how the engine reads a record type T.
// Only Key is required; nil accessors disable the matching predicate.
type Schema[T any] struct {
	Key    func(T) string
	Search []func(T) string
	Status func(T) string
	Date   func(T) time.Time
	Amount func(T) float64
	Facets map[string]func(T) string
	Sorts  map[string]func(a, b T) int
}

// FilterState is the set of independent predicates applied to a dataset.
// Every predicate left at its zero value (or "all") is ignored.
type FilterState struct {
	Search    string
	Status    string
	From      *time.Time
	To        *time.Time
	MinAmount *float64
	MaxAmount *float64
	Facets    map[string]string
	Sort      string
	Desc      bool
}

// Active reports whether any predicate would narrow the dataset.
func (f FilterState) Active() bool {
	if strings.TrimSpace(f.Search) != "" || selects(f.Status) {
		return true
	}
	if f.From != nil && f.To != nil {
		return true
	}
	if f.MinAmount != nil || f.MaxAmount != nil {
		return true
	}
	for _, v := range f.Facets {
		if selects(v) {
			return true
		}
	}
	return false
}

// Equal reports whether two filter states select the same records in the same order.
func (f FilterState) Equal(o FilterState) bool {
	if f.Search != o.Search || f.Status != o.Status || f.Sort != o.Sort || f.Desc != o.Desc {
		return false
	}
	if !timePtrEqual(f.From, o.From) || !timePtrEqual(f.To, o.To) {
		return false
	}
	if !floatPtrEqual(f.MinAmount, o.MinAmount) || !floatPtrEqual(f.MaxAmount, o.MaxAmount) {
		return false
	}
	if len(f.Facets) != len(o.Facets) {
		return false
	}
	for k, v := range f.Facets {
		if ov, ok := o.Facets[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Apply returns the records matching every active predicate of f.
// Input order is preserved unless f.Sort names a known sorter, in which case
// the result is stably sorted. The input slice is never modified.
func (s Schema[T]) Apply(records []T, f FilterState) []T {
	term := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]T, 0, len(records))
	for _, r := range records {
		if !s.matchesSearch(r, term) {
			continue
		}
		if !matchesExact(s.Status, r, f.Status) {
			continue
		}
		if !s.matchesFacets(r, f.Facets) {
			continue
		}
		if !s.matchesDate(r, f.From, f.To) {
			continue
		}
		if !s.matchesAmount(r, f.MinAmount, f.MaxAmount) {
			continue
		}
		out = append(out, r)
	}

	if cmp, ok := s.Sorts[f.Sort]; ok && cmp != nil {
		if f.Desc {
			slices.SortStableFunc(out, func(a, b T) int { return cmp(b, a) })
		} else {
			slices.SortStableFunc(out, cmp)
		}
	}
	return out
}

// Apply is shorthand for schema.Apply(records, f).
func Apply[T any](schema Schema[T], records []T, f FilterState) []T {
	return schema.Apply(records, f)
}

func (s Schema[T]) matchesSearch(r T, lowerTerm string) bool {
	if lowerTerm == "" || len(s.Search) == 0 {
		return true
	}
	for _, field := range s.Search {
		if strings.Contains(strings.ToLower(field(r)), lowerTerm) {
			return true
		}
	}
	return false
}

func (s Schema[T]) matchesFacets(r T, facets map[string]string) bool {
	for name, want := range facets {
		accessor, ok := s.Facets[name]
		if !ok {
			continue
		}
		if !matchesExact(accessor, r, want) {
			return false
		}
	}
	return true
}

func (s Schema[T]) matchesDate(r T, from, to *time.Time) bool {
	if s.Date == nil || from == nil || to == nil {
		return true
	}
	d := s.Date(r)
	return !d.Before(*from) && !d.After(*to)
}

func (s Schema[T]) matchesAmount(r T, lo, hi *float64) bool {
	if s.Amount == nil {
		return true
	}
	v := s.Amount(r)
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v > *hi {
		return false
	}
	return true
}

func matchesExact[T any](accessor func(T) string, r T, want string) bool {
	if accessor == nil || !selects(want) {
		return true
	}
	return accessor(r) == want
}

func selects(v string) bool {
	return v != "" && v != All
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Compare helpers for building Schema.Sorts.

// ByString orders records by a string field.
func ByString[T any](field func(T) string) func(a, b T) int {
	return func(a, b T) int { return strings.Compare(field(a), field(b)) }
}

// ByTime orders records by a time field.
func ByTime[T any](field func(T) time.Time) func(a, b T) int {
	return func(a, b T) int { return field(a).Compare(field(b)) }
}

// ByFloat orders records by a numeric field.
func ByFloat[T any](field func(T) float64) func(a, b T) int {
	return func(a, b T) int {
		x, y := field(a), field(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	}
}
