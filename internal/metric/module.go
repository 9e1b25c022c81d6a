package metric

import "github.com/gin-gonic/gin"

// Module implements the app.Module interface for the dashboard.
type Module struct {
	handler *Handler
}

// NewModule creates a Module. Panics if h is nil.
func NewModule(h *Handler) *Module {
	if h == nil {
		panic("metric.NewModule: handler must not be nil")
	}
	return &Module{handler: h}
}

// RegisterRoutes registers dashboard API and page routes.
func (m *Module) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	api.GET("/metrics", m.handler.List)
	api.GET("/metrics/:metric", m.handler.Get)
	api.GET("/reports/chart", m.handler.Chart)
	api.GET("/reports/best-selling", m.handler.BestSelling)

	pages.GET("/dashboard", m.handler.Dashboard)
	pages.GET("/dashboard/cards/:metric", m.handler.CardPartial)
}
