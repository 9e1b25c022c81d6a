package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/simp-lee/merchantdash/internal/middleware"
)

// RouteDeps holds all dependencies needed to register routes.
type RouteDeps struct {
	Modules    []Module
	DB         *gorm.DB
	Mode       string // gin mode
	CSRFSecret string
	// Metrics is exposed on /metrics when set.
	Metrics *prometheus.Registry
}

func (d *RouteDeps) validate() error {
	if d == nil {
		return errors.New("route dependencies are nil")
	}
	if len(d.Modules) == 0 {
		return errors.New("at least one module is required")
	}
	if strings.TrimSpace(d.CSRFSecret) == "" {
		return errors.New("csrf secret is required")
	}
	for i, m := range d.Modules {
		if m == nil {
			return fmt.Errorf("module at index %d is nil", i)
		}
	}
	return nil
}

// RegisterRoutes mounts static assets, /health, /metrics, the /api/v1 group
// and the CSRF-protected page group, then lets every module add its routes.
func RegisterRoutes(r *gin.Engine, deps *RouteDeps) error {
	if r == nil {
		return errors.New("router is nil")
	}
	if err := deps.validate(); err != nil {
		return err
	}
	if err := registerStaticRoutes(r, deps.Mode); err != nil {
		return fmt.Errorf("register static routes: %w", err)
	}

	r.GET("/health", healthHandler(deps.DB))
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}
	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/dashboard") })

	api := r.Group("/api/v1")
	pages := r.Group("/", middleware.CSRF(deps.CSRFSecret))
	for _, m := range deps.Modules {
		m.RegisterRoutes(api, pages)
	}

	r.NoRoute(noRouteHandler())
	return nil
}

// healthHandler reports 503 "degraded" when the database does not answer a ping.
func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		components := gin.H{"database": "ok"}
		if err := pingDatabase(c.Request.Context(), db); err != nil {
			components["database"] = "error"
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "components": components})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "components": components})
	}
}

func pingDatabase(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("no database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func noRouteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		renderError(c, http.StatusNotFound, "not found")
	}
}

func registerStaticRoutes(r *gin.Engine, mode string) error {
	fsys, err := webFS(mode)
	if err != nil {
		return err
	}
	staticFS, err := fs.Sub(fsys, "static")
	if err != nil {
		return fmt.Errorf("create sub filesystem for static assets: %w", err)
	}
	fileServer := http.StripPrefix("/static", http.FileServer(http.FS(staticFS)))

	if mode == gin.DebugMode {
		r.GET("/static/*filepath", gin.WrapH(fileServer))
		return nil
	}
	r.GET("/static/*filepath", func(c *gin.Context) {
		c.Header("Cache-Control", "public, max-age=86400")
		fileServer.ServeHTTP(c.Writer, c.Request)
	})
	return nil
}
