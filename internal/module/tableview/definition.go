// Package tableview serves the record tables of the dashboard. A Definition
// describes one record type; the generic Handler turns it into an HTML list
// page with search, filters, selection and pagination, a detail page, htmx row
// actions and a JSON API that follows the same query contract.
package tableview

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/merchantdash/internal/pkg"
	"github.com/simp-lee/merchantdash/internal/table"
)

// Source loads the full record set of a table.
type Source[T any] interface {
	List(ctx context.Context) ([]T, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc[T any] func(ctx context.Context) ([]T, error)

// List calls f.
func (f SourceFunc[T]) List(ctx context.Context) ([]T, error) { return f(ctx) }

// Change is a bound edit request whose fields are all optional.
type Change interface {
	IsEmpty() bool
}

// Updater binds an edit request and applies it to one record.
type Updater[T any] interface {
	bindJSON(c *gin.Context) (edit[T], bool)
	bindForm(c *gin.Context) (edit[T], error)
}

// Edits adapts a typed update function to Updater. The json, form and binding
// tags of U drive decoding and validation.
type Edits[T any, U Change] func(ctx context.Context, id string, u U) (T, error)

type edit[T any] struct {
	empty bool
	apply func(ctx context.Context, id string) (T, error)
}

func (f Edits[T, U]) edit(u U) edit[T] {
	return edit[T]{
		empty: u.IsEmpty(),
		apply: func(ctx context.Context, id string) (T, error) { return f(ctx, id, u) },
	}
}

// bindJSON writes the 400 reply itself when the body is invalid.
func (f Edits[T, U]) bindJSON(c *gin.Context) (edit[T], bool) {
	var u U
	if !pkg.BindAndValidate(c, &u) {
		return edit[T]{}, false
	}
	return f.edit(u), true
}

func (f Edits[T, U]) bindForm(c *gin.Context) (edit[T], error) {
	var u U
	if err := c.ShouldBind(&u); err != nil {
		return edit[T]{}, pkg.BindError(err, &u)
	}
	return f.edit(u), nil
}

// Deleter removes one record. For some tables delete means cancel.
type Deleter interface {
	Delete(ctx context.Context, id string) error
}

// Column is one table column.
type Column[T any] struct {
	Header string
	Value  func(T) string
	Sort   string // sorter key in the schema; empty disables header sorting
	Align  string // "right" for numeric columns
	Badge  bool   // render the value as a status pill
}

// FilterControl is a select rendered above the table. Param is "status" or a
// facet key of the schema.
type FilterControl struct {
	Param   string
	Label   string
	Options []string
}

// Field is a labelled value on the detail page or an editable input on the
// edit form. Options turns an editable field into a select.
type Field[T any] struct {
	Name    string
	Label   string
	Value   func(T) string
	Options []string
}

// Definition configures one table screen.
type Definition[T any] struct {
	Name     string // URL segment, e.g. "orders"
	Title    string // page heading
	Noun     string // plural, for "No {noun} found"
	Singular string // for toasts, e.g. "order"

	Schema       table.Schema[T]
	Columns      []Column[T]
	Filters      []FilterControl
	DateFilter   bool
	AmountFilter bool
	AmountLabel  string

	Detail     []Field[T]
	EditFields []Field[T]

	// ArchiveStatus, when set, adds an Archive row action that patches the
	// status field to this value.
	ArchiveStatus string
	// DeleteVerb labels the delete action ("Delete", "Cancel").
	DeleteVerb string

	Source  Source[T]
	Updater Updater[T]
	Deleter Deleter

	PageSize int
	Location *time.Location
}

const defaultPageSize = 10

func (d *Definition[T]) normalize() {
	if d.Name == "" {
		panic("tableview: definition name must not be empty")
	}
	if d.Source == nil {
		panic("tableview: definition " + d.Name + " has no source")
	}
	if d.Schema.Key == nil {
		panic("tableview: definition " + d.Name + " has no key accessor")
	}
	if d.PageSize <= 0 {
		d.PageSize = defaultPageSize
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Noun == "" {
		d.Noun = d.Name
	}
	if d.Singular == "" {
		d.Singular = d.Noun
	}
	if d.Title == "" {
		d.Title = d.Name
	}
	if d.DeleteVerb == "" {
		d.DeleteVerb = "Delete"
	}
	if d.AmountLabel == "" {
		d.AmountLabel = "Amount"
	}
}

// facetParams lists the query keys accepted as facets.
func (d *Definition[T]) facetParams() []string {
	var params []string
	for _, f := range d.Filters {
		if f.Param != "status" {
			params = append(params, f.Param)
		}
	}
	return params
}

func (d *Definition[T]) canEdit() bool    { return d.Updater != nil && len(d.EditFields) > 0 }
func (d *Definition[T]) canArchive() bool { return d.Updater != nil && d.ArchiveStatus != "" }
func (d *Definition[T]) canDelete() bool  { return d.Deleter != nil }

func (d *Definition[T]) actions() Actions {
	return Actions{
		Edit:          d.canEdit(),
		Archive:       d.canArchive(),
		ArchiveStatus: d.ArchiveStatus,
		Delete:        d.canDelete(),
		DeleteVerb:    d.DeleteVerb,
	}
}

// row renders rec's cells.
func (d *Definition[T]) row(rec T) Row {
	row := Row{ID: d.Schema.Key(rec)}
	for _, col := range d.Columns {
		row.Cells = append(row.Cells, Cell{Text: col.Value(rec), Align: col.Align, Badge: col.Badge})
	}
	return row
}

// Options carries display settings shared by every table.
type Options struct {
	CurrencySymbol string
	PageSize       int
	Location       *time.Location
}

// Money formats v in the configured currency.
func (o Options) Money(v float64) string {
	symbol := o.CurrencySymbol
	if symbol == "" {
		symbol = "₦"
	}
	return pkg.FormatMoney(v, symbol)
}

// Local converts t to the configured location.
func (o Options) Local(t time.Time) time.Time {
	if o.Location == nil {
		return t
	}
	return t.In(o.Location)
}
