package pkg

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/pagination"

	"github.com/simp-lee/merchantdash/internal/table"
)

const dateLayout = "2006-01-02"

// reservedParams lists query parameter names owned by the table contract,
// which can therefore never be used as facet names.
var reservedParams = map[string]bool{
	"q":          true,
	"status":     true,
	"from":       true,
	"to":         true,
	"min_amount": true,
	"max_amount": true,
	"sort":       true,
	"dir":        true,
	"page":       true,
	"selected":   true,
	"select_all": true,
}

// validFieldName matches only alphanumeric characters and underscores.
var validFieldName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// TableQuery is the parsed query string of a table screen.
type TableQuery struct {
	Filters   table.FilterState
	Page      int // 0-based
	Selected  []string
	SelectAll bool
}

// ParseTableQuery extracts search, filter, sort, page and selection parameters.
// facets names the domain-specific select filters the caller accepts; other
// keys are ignored. Malformed values are dropped rather than rejected so a bad
// link degrades to an unfiltered view.
func ParseTableQuery(c *gin.Context, facets []string, loc *time.Location) TableQuery {
	return ParseTableValues(c.Request.URL.Query(), facets, loc)
}

// ParseTableValues is ParseTableQuery over already parsed query values, such
// as the query of the list page an htmx request was sent from.
func ParseTableValues(query url.Values, facets []string, loc *time.Location) TableQuery {
	if loc == nil {
		loc = time.Local
	}

	var q TableQuery
	f := &q.Filters
	f.Search = strings.TrimSpace(query.Get("q"))
	f.Status = strings.TrimSpace(query.Get("status"))

	if from, ok := parseDate(query.Get("from"), loc, false); ok {
		f.From = &from
	}
	if to, ok := parseDate(query.Get("to"), loc, true); ok {
		f.To = &to
	}
	f.MinAmount = parseAmount(query.Get("min_amount"))
	f.MaxAmount = parseAmount(query.Get("max_amount"))

	if sort := query.Get("sort"); validFieldName.MatchString(sort) {
		f.Sort = sort
		f.Desc = strings.EqualFold(query.Get("dir"), "desc")
	}

	for _, name := range facets {
		if reservedParams[name] || !validFieldName.MatchString(name) {
			continue
		}
		if v := strings.TrimSpace(query.Get(name)); v != "" {
			if f.Facets == nil {
				f.Facets = make(map[string]string)
			}
			f.Facets[name] = v
		}
	}

	if page, err := strconv.Atoi(query.Get("page")); err == nil && page > 1 {
		q.Page = page - 1
	}

	for _, id := range query["selected"] {
		if id = strings.TrimSpace(id); id != "" {
			q.Selected = append(q.Selected, id)
		}
	}
	q.SelectAll = isTruthy(query.Get("select_all"))
	return q
}

// parseDate accepts YYYY-MM-DD (in loc) or RFC3339. A date-only upper bound is
// extended to the last nanosecond of that day.
func parseDate(raw string, loc *time.Location, endOfDay bool) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	t, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, true
}

func parseAmount(raw string) *float64 {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// TablePage is the JSON shape of one rendered table page: the shared page
// container plus the footer label, the compact page window, the selection and
// the filters that produced it.
type TablePage[T any] struct {
	pagination.Pagination[T]
	Label        string     `json:"label"`
	VisiblePages []PageLink `json:"visible_pages"`
	Selected     []string   `json:"selected"`
	AllSelected  bool       `json:"all_selected"`
	Filters      FilterEcho `json:"filters"`
}

// PageLink is one entry of the visible page window; Page is 0 for an ellipsis.
type PageLink struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
	Current  bool `json:"current,omitempty"`
}

// FilterEcho reports the filters that produced a page.
type FilterEcho struct {
	Search string            `json:"q,omitempty"`
	Status string            `json:"status,omitempty"`
	Facets map[string]string `json:"facets,omitempty"`
	Sort   string            `json:"sort,omitempty"`
	Desc   bool              `json:"desc,omitempty"`
}

// NewTablePage snapshots the current page of v.
func NewTablePage[T any](ctx context.Context, v *table.View[T]) (TablePage[T], error) {
	p := v.Paginator()
	page, err := Paginate(ctx, v.Filtered(), p.Current()+1, p.PageSize())
	if err != nil {
		return TablePage[T]{}, err
	}
	f := v.Filters()
	return TablePage[T]{
		Pagination:   *page,
		Label:        p.Label(),
		VisiblePages: PageLinks(p),
		Selected:     v.Selection().IDs(),
		AllSelected:  v.AllSelected(),
		Filters: FilterEcho{
			Search: f.Search,
			Status: f.Status,
			Facets: f.Facets,
			Sort:   f.Sort,
			Desc:   f.Desc,
		},
	}, nil
}

// Paginate cuts page (1-based, clamped to the last page) out of items.
// A non-positive size falls back to 10.
func Paginate[T any](ctx context.Context, items []T, page, size int) (*pagination.Pagination[T], error) {
	if size <= 0 {
		size = 10
	}
	return pagination.NewPaginator(
		pagination.WithItemsPerPage[T](size),
		pagination.WithKnownTotal[T](int64(len(items))),
		pagination.WithSliceCallback(func(_ context.Context, offset, limit int) ([]T, error) {
			from := min(offset, len(items))
			return items[from:min(from+limit, len(items))], nil
		}),
	).Paginate(ctx, max(page, 1))
}

// PageLinks converts the paginator window into 1-based links.
func PageLinks(p *table.Paginator) []PageLink {
	items := p.VisiblePages()
	links := make([]PageLink, len(items))
	for i, it := range items {
		if it.Ellipsis {
			links[i] = PageLink{Ellipsis: true}
			continue
		}
		links[i] = PageLink{Page: it.Number(), Current: it.Index == p.Current()}
	}
	return links
}
