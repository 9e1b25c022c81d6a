package tableview

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/merchantdash/internal/domain"
	"github.com/simp-lee/merchantdash/internal/middleware"
	"github.com/simp-lee/merchantdash/internal/pkg"
	"github.com/simp-lee/merchantdash/internal/table"
)

// getter is implemented by sources that can load a single record directly.
type getter[T any] interface {
	Get(ctx context.Context, id string) (*T, error)
}

// Handler serves one table's pages, htmx actions and JSON API.
type Handler[T any] struct {
	def Definition[T]
}

// NewHandler creates a Handler for def. Panics if def is incomplete.
func NewHandler[T any](def Definition[T]) *Handler[T] {
	def.normalize()
	return &Handler[T]{def: def}
}

// Definition returns the normalized table definition.
func (h *Handler[T]) Definition() Definition[T] { return h.def }

// load fetches every record and applies the request's query to a fresh view.
func (h *Handler[T]) load(c *gin.Context) (*table.View[T], error) {
	return h.view(c.Request.Context(), c.Request.URL.Query())
}

func (h *Handler[T]) view(ctx context.Context, query url.Values) (*table.View[T], error) {
	q := pkg.ParseTableValues(query, h.def.facetParams(), h.def.Location)

	records, err := h.def.Source.List(ctx)
	if err != nil {
		return nil, err
	}

	v := table.NewView(h.def.Schema, h.def.PageSize)
	v.Load(records)
	v.SetFilters(q.Filters)
	v.GoTo(q.Page)
	if q.SelectAll {
		v.ToggleAll(true)
	}
	for _, id := range q.Selected {
		v.ToggleOne(id, true)
	}
	return v, nil
}

func (h *Handler[T]) find(ctx context.Context, id string) (T, error) {
	if g, ok := h.def.Source.(getter[T]); ok {
		rec, err := g.Get(ctx, id)
		if err != nil {
			var zero T
			return zero, err
		}
		return *rec, nil
	}
	records, err := h.def.Source.List(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	for _, r := range records {
		if h.def.Schema.Key(r) == id {
			return r, nil
		}
	}
	var zero T
	return zero, domain.ErrNotFound
}

// ListPage renders the table page. htmx requests get only the table region.
// GET /{name}
func (h *Handler[T]) ListPage(c *gin.Context) {
	v, err := h.load(c)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "load table", "table", h.def.Name, "error", err)
		if pkg.IsHTMX(c) {
			pkg.ActionFailed(c, "Failed to load "+h.def.Noun)
			return
		}
		c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{})
		return
	}

	name := "table/list.html"
	if pkg.IsHTMX(c) && c.GetHeader("HX-Target") == "table-region" {
		name = "table/region.html"
	}
	c.HTML(http.StatusOK, name, gin.H{
		"Table":     buildPage(&h.def, v, c.Request.URL.Query()),
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

// DetailPage renders a single record.
// GET /{name}/:id
func (h *Handler[T]) DetailPage(c *gin.Context) {
	rec, err := h.find(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderPageError(c, err)
		return
	}

	c.HTML(http.StatusOK, "table/detail.html", gin.H{
		"Name":      h.def.Name,
		"Title":     capitalize(h.def.Singular),
		"ID":        h.def.Schema.Key(rec),
		"Fields":    detailFields(h.def.Detail, rec),
		"CanEdit":   h.def.canEdit(),
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

// EditPage renders the edit form.
// GET /{name}/:id/edit
func (h *Handler[T]) EditPage(c *gin.Context) {
	rec, err := h.find(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.renderPageError(c, err)
		return
	}

	c.HTML(http.StatusOK, "table/form.html", gin.H{
		"Name":      h.def.Name,
		"Title":     "Edit " + h.def.Singular,
		"ID":        h.def.Schema.Key(rec),
		"Fields":    formFields(h.def.EditFields, rec),
		"CSRFToken": middleware.GetCSRFToken(c),
	})
}

// UpdateHTMX applies an edit form or row action. Row actions get the updated
// row back; the edit form is redirected to the detail page.
// PATCH /{name}/:id
func (h *Handler[T]) UpdateHTMX(c *gin.Context) {
	id := c.Param("id")
	ed, err := h.def.Updater.bindForm(c)
	if err != nil {
		pkg.ActionFailed(c, pkg.SafeMessage(err, "Invalid "+h.def.Singular))
		return
	}
	if ed.empty {
		pkg.ActionFailed(c, "Nothing to update")
		return
	}

	rec, err := ed.apply(c.Request.Context(), id)
	if err != nil {
		slog.WarnContext(c.Request.Context(), "update record", "table", h.def.Name, "id", id, "error", err)
		pkg.ActionFailed(c, pkg.SafeMessage(err, "Failed to update "+h.def.Singular))
		return
	}

	msg := capitalize(h.def.Singular) + " updated"
	if h.def.ArchiveStatus != "" && c.PostForm("status") == h.def.ArchiveStatus {
		msg = capitalize(h.def.Singular) + " archived"
	}
	pkg.SetToast(c, msg, pkg.ToastSuccess)

	if strings.HasPrefix(c.GetHeader("HX-Target"), "row-") {
		c.HTML(http.StatusOK, "table/row.html", gin.H{
			"Table": Page{Name: h.def.Name, BaseURL: "/" + h.def.Name, Actions: h.def.actions()},
			"Row":   h.listedRow(c, rec),
		})
		return
	}
	c.Header("HX-Redirect", "/"+h.def.Name+"/"+id)
	c.Status(http.StatusOK)
}

// listedRow renders rec as it appears on the list page the request was sent
// from (HX-Current-URL), keeping that page's selection and toggle link.
func (h *Handler[T]) listedRow(c *gin.Context, rec T) Row {
	base := "/" + h.def.Name
	query := url.Values{}
	if cur, err := url.Parse(c.GetHeader("HX-Current-URL")); err == nil && cur.Path == base {
		query = cur.Query()
	}

	id := h.def.Schema.Key(rec)
	if v, err := h.view(c.Request.Context(), query); err == nil {
		for _, row := range buildPage(&h.def, v, query).Rows {
			if row.ID == id {
				return row
			}
		}
	}

	// The record left the filtered page; keep its selection state as listed.
	q := pkg.ParseTableValues(query, h.def.facetParams(), h.def.Location)
	row := h.def.row(rec)
	row.Selected = q.SelectAll || slices.Contains(q.Selected, id)
	selected := q.Selected
	if q.SelectAll {
		selected = nil
	}
	row.ToggleURL = newURLBuilder(base, query).selection(q.Page, toggle(selected, id), false)
	return row
}

// DeleteHTMX deletes (or cancels) a record; the empty body removes the row.
// DELETE /{name}/:id
func (h *Handler[T]) DeleteHTMX(c *gin.Context) {
	id := c.Param("id")
	verb := strings.ToLower(h.def.DeleteVerb)
	if err := h.def.Deleter.Delete(c.Request.Context(), id); err != nil {
		slog.WarnContext(c.Request.Context(), "delete record", "table", h.def.Name, "id", id, "error", err)
		pkg.ActionFailed(c, pkg.SafeMessage(err, "Failed to "+verb+" "+h.def.Singular))
		return
	}

	pkg.SetToast(c, capitalize(h.def.Singular)+" "+pastTense(verb), pkg.ToastSuccess)
	c.Status(http.StatusOK)
}

// List handles GET /api/v1/{name}.
func (h *Handler[T]) List(c *gin.Context) {
	v, err := h.load(c)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	page, err := pkg.NewTablePage(c.Request.Context(), v)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.List(c, page)
}

// Get handles GET /api/v1/{name}/:id.
func (h *Handler[T]) Get(c *gin.Context) {
	rec, err := h.find(c.Request.Context(), c.Param("id"))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, rec)
}

// Update handles PATCH /api/v1/{name}/:id with a JSON object of the fields
// to change.
func (h *Handler[T]) Update(c *gin.Context) {
	ed, ok := h.def.Updater.bindJSON(c)
	if !ok {
		return
	}
	if ed.empty {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, "no fields to update", nil))
		return
	}

	rec, err := ed.apply(c.Request.Context(), c.Param("id"))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, rec)
}

// Delete handles DELETE /api/v1/{name}/:id.
func (h *Handler[T]) Delete(c *gin.Context) {
	if err := h.def.Deleter.Delete(c.Request.Context(), c.Param("id")); err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, nil)
}

func (h *Handler[T]) renderPageError(c *gin.Context, err error) {
	switch {
	case domain.IsNotFound(err):
		c.HTML(http.StatusNotFound, "errors/404.html", gin.H{})
	case domain.IsValidation(err):
		c.HTML(http.StatusBadRequest, "errors/400.html", gin.H{})
	default:
		slog.ErrorContext(c.Request.Context(), "load record", "table", h.def.Name, "id", c.Param("id"), "error", err)
		c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{})
	}
}

func pastTense(verb string) string {
	switch {
	case verb == "cancel":
		return "cancelled"
	case strings.HasSuffix(verb, "e"):
		return verb + "d"
	default:
		return verb + "ed"
	}
}
