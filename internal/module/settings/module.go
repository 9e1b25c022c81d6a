package settings

import "github.com/gin-gonic/gin"

// Module implements the app.Module interface for settings.
type Module struct {
	handler *Handler
}

// NewModule creates the settings module. Panics if h is nil.
func NewModule(h *Handler) *Module {
	if h == nil {
		panic("settings.NewModule: handler must not be nil")
	}
	return &Module{handler: h}
}

// RegisterRoutes registers the settings API and page routes.
func (m *Module) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	h := m.handler

	s := api.Group("/settings")
	s.GET("/banks", h.Banks)
	s.GET("/resolve-account", h.ResolveAccount)
	s.POST("/subaccount", h.CreateSubaccount)
	s.GET("/store", h.Store)
	s.PATCH("/store", h.UpdateStore)

	pages.GET("/settings", h.Page)
}
