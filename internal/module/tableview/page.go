package tableview

import (
	"net/url"
	"slices"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/simp-lee/merchantdash/internal/pkg"
	"github.com/simp-lee/merchantdash/internal/table"
)

// Heading is a column header with its sort link.
type Heading struct {
	Label   string
	Align   string
	SortURL string
	Sorted  bool
	Desc    bool
}

// Cell is one rendered table cell.
type Cell struct {
	Text  string
	Align string
	Badge bool
}

// Row is one rendered table row.
type Row struct {
	ID        string
	Cells     []Cell
	Selected  bool
	ToggleURL string
}

// Select is a rendered filter control.
type Select struct {
	Param   string
	Label   string
	Options []string
	Value   string
}

// Link is one entry of the pagination window.
type Link struct {
	Page     int
	URL      string
	Current  bool
	Ellipsis bool
}

// Actions describes which row actions a table offers.
type Actions struct {
	Edit          bool
	Archive       bool
	ArchiveStatus string
	Delete        bool
	DeleteVerb    string
}

// Page is the template model of a list page.
type Page struct {
	Name    string
	Title   string
	Noun    string
	BaseURL string

	Headings []Heading
	Rows     []Row
	Empty    bool
	EmptyMsg string
	Colspan  int

	Search       string
	Selects      []Select
	DateFilter   bool
	From         string
	To           string
	AmountFilter bool
	AmountLabel  string
	MinAmount    string
	MaxAmount    string
	Sort         string // active sort key, carried through filter changes
	Dir          string

	AllSelected   bool
	SelectAllURL  string
	SelectedCount int

	Label   string
	Links   []Link
	PrevURL string
	NextURL string

	Actions Actions
}

// urlBuilder produces links that keep the current filters.
type urlBuilder struct {
	base   string
	values url.Values
}

func newURLBuilder(base string, query url.Values) urlBuilder {
	v := url.Values{}
	for k, vals := range query {
		switch k {
		case "page", "selected", "select_all":
			continue
		}
		v[k] = slices.Clone(vals)
	}
	return urlBuilder{base: base, values: v}
}

func (u urlBuilder) build(mutate func(url.Values)) string {
	v := url.Values{}
	for k, vals := range u.values {
		v[k] = slices.Clone(vals)
	}
	if mutate != nil {
		mutate(v)
	}
	if len(v) == 0 {
		return u.base
	}
	return u.base + "?" + v.Encode()
}

// page links to a 0-based page index.
func (u urlBuilder) page(index int) string {
	return u.build(func(v url.Values) {
		if index > 0 {
			v.Set("page", strconv.Itoa(index+1))
		}
	})
}

// selection links to the current page with the given selection.
func (u urlBuilder) selection(index int, ids []string, all bool) string {
	return u.build(func(v url.Values) {
		if index > 0 {
			v.Set("page", strconv.Itoa(index+1))
		}
		if all {
			v.Set("select_all", "1")
			return
		}
		for _, id := range ids {
			v.Add("selected", id)
		}
	})
}

// sort links to the first page ordered by key, flipping the direction when
// key is already the active sort.
func (u urlBuilder) sort(key string, active, desc bool) string {
	return u.build(func(v url.Values) {
		v.Set("sort", key)
		dir := "asc"
		if active && !desc {
			dir = "desc"
		}
		v.Set("dir", dir)
	})
}

func buildPage[T any](def *Definition[T], v *table.View[T], query url.Values) Page {
	base := "/" + def.Name
	u := newURLBuilder(base, query)
	f := v.Filters()
	p := v.Paginator()
	current := p.Current()
	sel := v.Selection()

	page := Page{
		Name:         def.Name,
		Title:        def.Title,
		Noun:         def.Noun,
		BaseURL:      base,
		Empty:        v.Empty(),
		EmptyMsg:     "No " + def.Noun + " found",
		Colspan:      len(def.Columns) + 2,
		Search:       f.Search,
		DateFilter:   def.DateFilter,
		AmountFilter: def.AmountFilter,
		AmountLabel:  def.AmountLabel,
		Label:        v.Footer(),
		AllSelected:  v.AllSelected(),
		Actions:      def.actions(),
	}
	if f.From != nil && f.To != nil {
		page.From = f.From.In(def.Location).Format("2006-01-02")
		page.To = f.To.In(def.Location).Format("2006-01-02")
	}
	if f.Sort != "" {
		page.Sort, page.Dir = f.Sort, "asc"
		if f.Desc {
			page.Dir = "desc"
		}
	}
	if f.MinAmount != nil {
		page.MinAmount = strconv.FormatFloat(*f.MinAmount, 'f', -1, 64)
	}
	if f.MaxAmount != nil {
		page.MaxAmount = strconv.FormatFloat(*f.MaxAmount, 'f', -1, 64)
	}

	for _, fc := range def.Filters {
		value := f.Facets[fc.Param]
		if fc.Param == "status" {
			value = f.Status
		}
		if value == "" {
			value = table.All
		}
		page.Selects = append(page.Selects, Select{Param: fc.Param, Label: fc.Label, Options: fc.Options, Value: value})
	}

	for _, col := range def.Columns {
		h := Heading{Label: col.Header, Align: col.Align}
		if col.Sort != "" {
			h.Sorted = f.Sort == col.Sort
			h.Desc = h.Sorted && f.Desc
			h.SortURL = u.sort(col.Sort, h.Sorted, f.Desc)
		}
		page.Headings = append(page.Headings, h)
	}

	selected := sel.IDs()
	page.SelectedCount = len(selected)
	for _, r := range v.Rows() {
		row := def.row(r)
		row.Selected = sel.Contains(row.ID)
		row.ToggleURL = u.selection(current, toggle(selected, row.ID), false)
		page.Rows = append(page.Rows, row)
	}
	if page.AllSelected {
		page.SelectAllURL = u.selection(current, nil, false)
	} else {
		page.SelectAllURL = u.selection(current, nil, true)
	}

	for _, l := range pkg.PageLinks(p) {
		link := Link{Page: l.Page, Current: l.Current, Ellipsis: l.Ellipsis}
		if !l.Ellipsis {
			link.URL = u.page(l.Page - 1)
		}
		page.Links = append(page.Links, link)
	}
	if p.HasPrev() {
		page.PrevURL = u.page(current - 1)
	}
	if p.HasNext() {
		page.NextURL = u.page(current + 1)
	}
	return page
}

// toggle returns ids with id added or removed.
func toggle(ids []string, id string) []string {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(slices.Clone(ids), i, i+1)
	}
	return append(slices.Clone(ids), id)
}

// DetailField is one label/value pair on a detail page.
type DetailField struct {
	Label string
	Value string
}

// FormField is one input on an edit form.
type FormField struct {
	Name    string
	Label   string
	Value   string
	Options []string
}

func detailFields[T any](fields []Field[T], record T) []DetailField {
	out := make([]DetailField, 0, len(fields))
	for _, f := range fields {
		out = append(out, DetailField{Label: f.Label, Value: f.Value(record)})
	}
	return out
}

func formFields[T any](fields []Field[T], record T) []FormField {
	out := make([]FormField, 0, len(fields))
	for _, f := range fields {
		out = append(out, FormField{Name: f.Name, Label: f.Label, Value: f.Value(record), Options: f.Options})
	}
	return out
}

// capitalize title-cases s. Casers are stateful, so each call gets its own.
func capitalize(s string) string {
	return cases.Title(language.English).String(s)
}
