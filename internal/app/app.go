// Package app wires configuration, storage, the merchant backend and the
// dashboard modules into an HTTP server.
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/simp-lee/merchantdash/internal/config"
	"github.com/simp-lee/merchantdash/internal/domain"
	"github.com/simp-lee/merchantdash/internal/middleware"
	"github.com/simp-lee/merchantdash/internal/seed"
	"github.com/simp-lee/merchantdash/web"
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine *gin.Engine
	db     *gorm.DB
	logger *logger.Logger
	cfg    *config.Config
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

var newHTTPServer = func(addr string, handler http.Handler, writeTimeout time.Duration) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New creates and wires a fully configured App from the given Config.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}

	success := false

	// 1. Logger.
	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	defer func() {
		if !success {
			closeLogger(log)
		}
	}()

	// 2. Database.
	db, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	defer func() {
		if !success {
			closeDatabase(db, log.Logger)
		}
	}()

	// 3. Schema and demo data.
	if err := prepareData(context.Background(), cfg, db, log.Logger); err != nil {
		return nil, err
	}

	// 4. Metrics registry: process, Go runtime, HTTP and backend collectors.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := middleware.NewHTTPMetrics(registry)

	// 5. Modules: repositories, services and handlers.
	modules, err := buildModules(cfg, db, registry, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("build modules: %w", err)
	}

	// 6. Gin engine with custom middleware (not gin.Default()).
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	engine.Use(
		middleware.Recovery(log.Logger),
		middleware.RequestID(),
		middleware.LoggerWithConfig(middleware.LoggerConfig{
			Logger:       log.Logger,
			SkipPrefixes: []string{"/static/", "/health", "/metrics"},
		}),
		httpMetrics.Handler(),
		middleware.RateLimit(rateLimitConfig(cfg.Server.RateLimit)),
	)

	// 7. Templates.
	fsys, err := webFS(cfg.Server.Mode)
	if err != nil {
		return nil, err
	}
	nav := navigation(cfg.Backend.Enabled())
	renderer, err := NewTemplateRenderer(fsys, cfg.Server.Mode == gin.DebugMode, template.FuncMap{
		"nav": func() []NavItem { return nav },
	})
	if err != nil {
		return nil, fmt.Errorf("setup template renderer: %w", err)
	}
	engine.HTMLRender = renderer

	// 8. CSRF secret.
	csrfSecret, err := resolveCSRFSecret(cfg.Server)
	if err != nil {
		return nil, err
	}
	if csrfSecret != cfg.Server.CSRFSecret {
		log.Warn("no csrf_secret configured, using a random secret (sessions reset on restart)")
	}

	// 9. Routes.
	if err := RegisterRoutes(engine, &RouteDeps{
		Modules:    modules,
		DB:         db,
		Mode:       cfg.Server.Mode,
		CSRFSecret: csrfSecret,
		Metrics:    registry,
	}); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	success = true
	return &App{engine: engine, db: db, logger: log, cfg: cfg}, nil
}

// prepareData migrates the schema in debug mode or when demo data is wanted,
// then seeds an empty database.
func prepareData(ctx context.Context, cfg *config.Config, db *gorm.DB, log *slog.Logger) error {
	seedDemo := cfg.Dashboard.SeedDemoData
	if cfg.Server.Mode != gin.DebugMode && !seedDemo {
		return nil
	}
	if err := db.WithContext(ctx).AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Info("auto migration completed")

	if !seedDemo {
		return nil
	}
	seeded, err := seed.Demo(ctx, db, seed.Options{})
	if err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}
	if !seeded {
		log.Info("demo data skipped, database is not empty")
	}
	return nil
}

func rateLimitConfig(rl config.RateLimitConfig) middleware.RateLimitConfig {
	if !rl.Enabled {
		return middleware.RateLimitConfig{}
	}
	return middleware.RateLimitConfig{Rate: rl.RPS, Burst: rl.Burst}
}

// resolveCSRFSecret returns the configured secret, or a random one outside
// release mode when none (or a placeholder) is set.
func resolveCSRFSecret(server config.ServerConfig) (string, error) {
	if !isPlaceholderCSRFSecret(server.CSRFSecret) {
		return server.CSRFSecret, nil
	}
	if server.Mode == gin.ReleaseMode {
		return "", errors.New("csrf_secret must be a non-placeholder value in release mode")
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate csrf secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func isPlaceholderCSRFSecret(secret string) bool {
	switch strings.ToLower(strings.TrimSpace(secret)) {
	case "", "change-me-to-a-random-secret", "change-me-in-env":
		return true
	default:
		return false
	}
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

// webFS serves templates and assets from disk in debug mode so edits show
// without a rebuild, and from the embedded copy otherwise.
func webFS(mode string) (fs.FS, error) {
	if mode != gin.DebugMode {
		return web.EmbeddedFS, nil
	}
	fsys, err := resolveDebugWebFS()
	if err != nil {
		return nil, fmt.Errorf("resolve debug template fs: %w", err)
	}
	return fsys, nil
}

func resolveDebugWebFS() (fs.FS, error) {
	var candidates []string
	if _, file, _, ok := runtime.Caller(0); ok {
		candidates = append(candidates, filepath.Join(filepath.Dir(file), "..", "..", "web"))
	}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "web"))
	}
	for _, dir := range candidates {
		dir = filepath.Clean(dir)
		if stat, err := os.Stat(dir); err == nil && stat.IsDir() {
			return os.DirFS(dir), nil
		}
	}
	return nil, errors.New("debug web directory not found")
}

func closeLogger(log *logger.Logger) {
	if err := log.Close(); err != nil {
		slog.Error("logger close error", slog.Any("error", err))
	}
}

func closeDatabase(db *gorm.DB, log *slog.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error("database close error", slog.Any("error", err))
		return
	}
	log.Info("database connection closed")
}

// serverWriteTimeout leaves room for slow backend calls on top of the
// configured request timeout.
func serverWriteTimeout(cfg *config.Config) time.Duration {
	d, err := time.ParseDuration(cfg.Server.Timeout)
	if err != nil || d <= 0 {
		d = 30 * time.Second
	}
	return d + cfg.Backend.TimeoutDuration()
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
// It shuts down gracefully within 5 seconds, then closes the database and
// the logger.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	log := slog.Default()
	if a.logger != nil {
		log = a.logger.Logger
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine, serverWriteTimeout(a.cfg))

	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started",
			slog.String("addr", addr),
			slog.String("mode", a.cfg.Server.Mode),
			slog.Bool("backend", a.cfg.Backend.Enabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", slog.Any("error", err))
		}
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	if a.db != nil {
		closeDatabase(a.db, log)
	}
	log.Info("server stopped")
	if a.logger != nil {
		closeLogger(a.logger)
	}
	return runErr
}
