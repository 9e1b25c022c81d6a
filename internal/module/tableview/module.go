package tableview

import "github.com/gin-gonic/gin"

// Module implements the app.Module interface for one table.
type Module[T any] struct {
	handler *Handler[T]
}

// NewModule creates a Module for def. Panics if def is incomplete.
func NewModule[T any](def Definition[T]) *Module[T] {
	return &Module[T]{handler: NewHandler(def)}
}

// Handler returns the module's handler.
func (m *Module[T]) Handler() *Handler[T] { return m.handler }

// RegisterRoutes registers the table's API and page routes. Mutating routes
// exist only when the definition has an Updater or Deleter.
func (m *Module[T]) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	h := m.handler
	name := "/" + h.def.Name

	// API routes
	api.GET(name, h.List)
	api.GET(name+"/:id", h.Get)
	if h.def.Updater != nil {
		api.PATCH(name+"/:id", h.Update)
	}
	if h.def.Deleter != nil {
		api.DELETE(name+"/:id", h.Delete)
	}

	// Page routes
	pages.GET(name, h.ListPage)
	pages.GET(name+"/:id", h.DetailPage)
	if h.def.canEdit() {
		pages.GET(name+"/:id/edit", h.EditPage)
	}
	if h.def.Updater != nil {
		pages.PATCH(name+"/:id", h.UpdateHTMX)
	}
	if h.def.Deleter != nil {
		pages.DELETE(name+"/:id", h.DeleteHTMX)
	}
}
