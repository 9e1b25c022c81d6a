package table

import "fmt"

// PageItem is one entry of the compact page-number window.
// Ellipsis entries carry no index.
type PageItem struct {
	Index    int
	Ellipsis bool
}

// Number is the 1-based page number shown to users.
func (p PageItem) Number() int { return p.Index + 1 }

// Paginator tracks a 0-based current page over a total item count.
type Paginator struct {
	pageSize int
	total    int
	current  int
}

// NewPaginator returns a paginator with the given page size.
// Non-positive sizes fall back to 10.
func NewPaginator(pageSize int) *Paginator {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Paginator{pageSize: pageSize}
}

// PageSize returns the fixed page size.
func (p *Paginator) PageSize() int { return p.pageSize }

// Total returns the item count the paginator was last given.
func (p *Paginator) Total() int { return p.total }

// Current returns the 0-based current page index.
func (p *Paginator) Current() int { return p.current }

// SetTotal updates the item count. A different count means the underlying
// filtered set changed, so the current page resets to 0.
func (p *Paginator) SetTotal(n int) {
	if n < 0 {
		n = 0
	}
	if n != p.total {
		p.current = 0
	}
	p.total = n
}

// Reset moves back to the first page.
func (p *Paginator) Reset() { p.current = 0 }

// TotalPages returns ceil(total / pageSize).
func (p *Paginator) TotalPages() int {
	return (p.total + p.pageSize - 1) / p.pageSize
}

// GoTo moves to page, clamped to [0, TotalPages()-1].
func (p *Paginator) GoTo(page int) {
	last := p.TotalPages() - 1
	if page > last {
		page = last
	}
	if page < 0 {
		page = 0
	}
	p.current = page
}

// HasNext reports whether Next would move.
func (p *Paginator) HasNext() bool { return p.current < p.TotalPages()-1 }

// HasPrev reports whether Prev would move.
func (p *Paginator) HasPrev() bool { return p.current > 0 }

// Next advances one page; no-op on the last page.
func (p *Paginator) Next() {
	if p.HasNext() {
		p.current++
	}
}

// Prev goes back one page; no-op on the first page.
func (p *Paginator) Prev() {
	if p.HasPrev() {
		p.current--
	}
}

// Bounds returns the [start, end) slice indices of the current page.
func (p *Paginator) Bounds() (int, int) {
	start := min(p.current*p.pageSize, p.total)
	end := min(start+p.pageSize, p.total)
	return start, end
}

// Label renders the footer text, e.g. "1-10 of 23".
func (p *Paginator) Label() string {
	start, end := p.Bounds()
	if p.total == 0 {
		return "0-0 of 0"
	}
	return fmt.Sprintf("%d-%d of %d", start+1, end, p.total)
}

// VisiblePages returns the compact page window.
//
// Up to three pages are listed in full. Beyond that the first and last pages
// are always present; the current page and its predecessor appear once the
// current page is past index 2, otherwise page 1 does. Gaps are marked with
// ellipsis items.
func (p *Paginator) VisiblePages() []PageItem {
	total := p.TotalPages()
	if total == 0 {
		return []PageItem{}
	}
	if total <= 3 {
		items := make([]PageItem, total)
		for i := range items {
			items[i] = PageItem{Index: i}
		}
		return items
	}

	items := []PageItem{{Index: 0}}
	if p.current > 2 {
		items = append(items, PageItem{Ellipsis: true}, PageItem{Index: p.current - 1}, PageItem{Index: p.current})
	} else {
		items = append(items, PageItem{Index: 1})
	}
	if p.current < total-2 {
		items = append(items, PageItem{Ellipsis: true})
	}
	if last := items[len(items)-1]; last.Ellipsis || last.Index != total-1 {
		items = append(items, PageItem{Index: total - 1})
	}
	return items
}
