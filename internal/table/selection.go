package table

import "slices"

// Selection is the set of checked row ids.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// ToggleAll selects exactly the displayed ids when checked, otherwise clears.
func (s *Selection) ToggleAll(displayed []string, checked bool) {
	s.Clear()
	if !checked {
		return
	}
	for _, id := range displayed {
		s.ids[id] = struct{}{}
	}
}

// ToggleOne adds or removes a single id.
func (s *Selection) ToggleOne(id string, checked bool) {
	if checked {
		s.ids[id] = struct{}{}
		return
	}
	delete(s.ids, id)
}

// IsAllSelected reports whether displayed is non-empty and fully selected.
func (s *Selection) IsAllSelected(displayed []string) bool {
	if len(displayed) == 0 {
		return false
	}
	for _, id := range displayed {
		if _, ok := s.ids[id]; !ok {
			return false
		}
	}
	return true
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection) Len() int { return len(s.ids) }

// IDs returns the selected ids in ascending order.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Clear empties the selection.
func (s *Selection) Clear() {
	clear(s.ids)
}

// Retain drops every id not present in keep.
func (s *Selection) Retain(keep []string) {
	allowed := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		allowed[id] = struct{}{}
	}
	for id := range s.ids {
		if _, ok := allowed[id]; !ok {
			delete(s.ids, id)
		}
	}
}
