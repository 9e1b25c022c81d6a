package app

import (
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"maps"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin/render"
)

// TemplateRenderer is a gin HTML renderer with layout and partial support.
//
// Every page is parsed on top of a clone of the shared base set
// (templates/layouts/*.html and templates/partials/*.html), so pages define
// blocks such as "title" and "content" and call {{template "base" .}}.
// Fragments swapped in by htmx (table/region.html, table/row.html,
// dashboard/card.html) are pages that skip the layout.
//
// In debug mode templates are re-parsed on every request; in release mode
// they are parsed once at startup.
type TemplateRenderer struct {
	templates map[string]*template.Template
	fs        fs.FS
	funcMap   template.FuncMap
	debug     bool
}

var _ render.HTMLRender = (*TemplateRenderer)(nil)

// NewTemplateRenderer creates a renderer over fsys, which must contain a
// templates/ directory. extra adds to (or overrides) the default helpers.
func NewTemplateRenderer(fsys fs.FS, debug bool, extra ...template.FuncMap) (*TemplateRenderer, error) {
	funcs := templateFuncMap()
	for _, m := range extra {
		maps.Copy(funcs, m)
	}
	r := &TemplateRenderer{fs: fsys, funcMap: funcs, debug: debug}

	if !debug {
		templates, err := r.parseAllTemplates()
		if err != nil {
			return nil, fmt.Errorf("parse templates: %w", err)
		}
		r.templates = templates
	}
	return r, nil
}

// Instance returns the render for a page named relative to templates/, for
// example "table/list.html".
func (r *TemplateRenderer) Instance(name string, data any) render.Render {
	templates := r.templates
	if r.debug {
		var err error
		if templates, err = r.parseAllTemplates(); err != nil {
			return &HTMLInstance{Name: name, err: err}
		}
	}
	return &HTMLInstance{Template: templates[name], Name: name, Data: data}
}

func (r *TemplateRenderer) parseAllTemplates() (map[string]*template.Template, error) {
	var baseFiles []string
	for _, pattern := range []string{"templates/layouts/*.html", "templates/partials/*.html"} {
		files, err := fs.Glob(r.fs, pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		baseFiles = append(baseFiles, files...)
	}

	base := template.New("").Funcs(r.funcMap)
	for _, f := range baseFiles {
		if err := parseFile(base, r.fs, f, f); err != nil {
			return nil, err
		}
	}

	pageFiles, err := r.discoverPageTemplates()
	if err != nil {
		return nil, fmt.Errorf("discover pages: %w", err)
	}

	templates := make(map[string]*template.Template, len(pageFiles))
	for _, pf := range pageFiles {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone base for %s: %w", pf, err)
		}
		name := strings.TrimPrefix(pf, "templates/")
		if err := parseFile(clone, r.fs, pf, name); err != nil {
			return nil, err
		}
		templates[name] = clone
	}
	return templates, nil
}

func parseFile(set *template.Template, fsys fs.FS, path, name string) error {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if _, err := set.New(name).Parse(string(content)); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// discoverPageTemplates lists every .html file under templates/ outside
// layouts/ and partials/.
func (r *TemplateRenderer) discoverPageTemplates() ([]string, error) {
	var pages []string
	err := fs.WalkDir(r.fs, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}
		rel := strings.TrimPrefix(path, "templates/")
		if strings.HasPrefix(rel, "layouts/") || strings.HasPrefix(rel, "partials/") {
			return nil
		}
		pages = append(pages, path)
		return nil
	})
	return pages, err
}

func templateFuncMap() template.FuncMap {
	return template.FuncMap{
		// dict builds a map from alternating keys and values so a partial can
		// receive more than one argument.
		"dict": func(kv ...any) (map[string]any, error) {
			if len(kv)%2 != 0 {
				return nil, errors.New("dict: odd number of arguments")
			}
			m := make(map[string]any, len(kv)/2)
			for i := 0; i < len(kv); i += 2 {
				k, ok := kv[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
				}
				m[k] = kv[i+1]
			}
			return m, nil
		},
		"badgeClass": badgeClass,
		"nav":        func() []NavItem { return nil },
	}
}

// badgeClass maps a status value to its badge color.
func badgeClass(status string) string {
	switch strings.ToLower(status) {
	case "paid", "delivered", "completed", "released", "active":
		return "badge-success"
	case "pending", "processing", "held", "due", "unpaid", "out_for_delivery":
		return "badge-warning"
	case "cancelled", "failed", "overdue", "refunded", "disputed", "out_of_stock":
		return "badge-danger"
	default:
		return "badge-neutral"
	}
}

// NavItem is one entry of the sidebar.
type NavItem struct {
	Title string
	Path  string
}

// navigation returns the sidebar entries; settings needs the backend.
func navigation(withSettings bool) []NavItem {
	items := []NavItem{
		{"Dashboard", "/dashboard"},
		{"Orders", "/orders"},
		{"Products", "/products"},
		{"Sales", "/sales"},
		{"Withdrawals", "/withdrawals"},
		{"Escrow", "/escrow"},
		{"Subscription Billing", "/billing"},
	}
	if withSettings {
		items = append(items, NavItem{"Settings", "/settings"})
	}
	return items
}

// HTMLInstance renders one page. It is returned by TemplateRenderer.Instance.
type HTMLInstance struct {
	Template *template.Template
	Name     string
	Data     any
	err      error
}

const htmlContentType = "text/html; charset=utf-8"

// Render writes the page to w.
func (h *HTMLInstance) Render(w http.ResponseWriter) error {
	h.WriteContentType(w)
	if h.err != nil {
		return h.err
	}
	if h.Template == nil {
		return fmt.Errorf("template %q not found", h.Name)
	}
	return h.Template.ExecuteTemplate(w, h.Name, h.Data)
}

// WriteContentType sets Content-Type unless already set.
func (h *HTMLInstance) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	if len(header["Content-Type"]) == 0 {
		header["Content-Type"] = []string{htmlContentType}
	}
}
