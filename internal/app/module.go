package app

import "github.com/gin-gonic/gin"

// Module is a dashboard section. api is mounted at /api/v1; pages sits behind
// the CSRF middleware.
type Module interface {
	RegisterRoutes(api, pages *gin.RouterGroup)
}
