package table

// View is the state of one table screen: the full record set, the active
// filters, the derived filtered set, pagination and selection.
//
// Invariants kept by every mutator:
//   - a change of the filtered set resets the page to 0 and clears the selection;
//   - a page change clears the selection;
//   - the selection only ever holds ids that are currently displayed.
type View[T any] struct {
	schema    Schema[T]
	all       []T
	filters   FilterState
	filtered  []T
	paginator *Paginator
	selection *Selection
}

// NewView builds an empty view over schema.
func NewView[T any](schema Schema[T], pageSize int) *View[T] {
	return &View[T]{
		schema:    schema,
		paginator: NewPaginator(pageSize),
		selection: NewSelection(),
	}
}

// Load replaces the full record set.
func (v *View[T]) Load(records []T) {
	v.all = append([]T(nil), records...)
	v.recompute()
}

// Filters returns the active filter state.
func (v *View[T]) Filters() FilterState { return v.filters }

// SetFilters replaces the filter state and recomputes the filtered set.
func (v *View[T]) SetFilters(f FilterState) {
	v.filters = f
	v.recompute()
}

func (v *View[T]) recompute() {
	v.filtered = v.schema.Apply(v.all, v.filters)
	v.paginator.SetTotal(len(v.filtered))
	v.paginator.Reset()
	v.selection.Clear()
}

// Paginator exposes the pagination controller.
func (v *View[T]) Paginator() *Paginator { return v.paginator }

// Selection exposes the selection tracker.
func (v *View[T]) Selection() *Selection { return v.selection }

// GoTo moves to page (clamped) and clears the selection if the page changed.
func (v *View[T]) GoTo(page int) {
	before := v.paginator.Current()
	v.paginator.GoTo(page)
	if v.paginator.Current() != before {
		v.selection.Clear()
	}
}

// Next advances one page when possible.
func (v *View[T]) Next() { v.GoTo(v.paginator.Current() + 1) }

// Prev goes back one page when possible.
func (v *View[T]) Prev() { v.GoTo(v.paginator.Current() - 1) }

// Filtered returns the full filtered set.
func (v *View[T]) Filtered() []T { return v.filtered }

// Rows returns the records on the current page.
func (v *View[T]) Rows() []T {
	start, end := v.paginator.Bounds()
	return v.filtered[start:end]
}

// DisplayedIDs returns the keys of the current page's records.
func (v *View[T]) DisplayedIDs() []string {
	rows := v.Rows()
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = v.schema.Key(r)
	}
	return ids
}

// ToggleAll selects or clears every displayed row.
func (v *View[T]) ToggleAll(checked bool) {
	v.selection.ToggleAll(v.DisplayedIDs(), checked)
}

// ToggleOne selects or clears a single row. Ids that are not displayed are ignored.
func (v *View[T]) ToggleOne(id string, checked bool) {
	for _, shown := range v.DisplayedIDs() {
		if shown == id {
			v.selection.ToggleOne(id, checked)
			return
		}
	}
}

// AllSelected reports whether every displayed row is selected.
func (v *View[T]) AllSelected() bool {
	return v.selection.IsAllSelected(v.DisplayedIDs())
}

// Footer renders the "{start}-{end} of {total}" label.
func (v *View[T]) Footer() string { return v.paginator.Label() }

// Empty reports whether the filtered set has no rows.
func (v *View[T]) Empty() bool { return len(v.filtered) == 0 }

// Find returns the record with id from the full set.
func (v *View[T]) Find(id string) (T, bool) {
	for _, r := range v.all {
		if v.schema.Key(r) == id {
			return r, true
		}
	}
	var zero T
	return zero, false
}

// Remove drops the record with id after a confirmed delete.
func (v *View[T]) Remove(id string) bool {
	for i, r := range v.all {
		if v.schema.Key(r) == id {
			v.all = append(v.all[:i:i], v.all[i+1:]...)
			v.recompute()
			return true
		}
	}
	return false
}

// Replace swaps in an updated record after a confirmed edit.
func (v *View[T]) Replace(record T) bool {
	id := v.schema.Key(record)
	for i, r := range v.all {
		if v.schema.Key(r) == id {
			v.all[i] = record
			v.recompute()
			return true
		}
	}
	return false
}
