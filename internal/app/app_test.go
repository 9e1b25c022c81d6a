package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/simp-lee/merchantdash/internal/config"
	"github.com/simp-lee/merchantdash/internal/pkg"
)

type fakeHTTPServer struct {
	listenErr      error
	listenStarted  chan struct{}
	shutdownCalled bool
	stopCh         chan struct{}
	mu             sync.Mutex
}

func (f *fakeHTTPServer) ListenAndServe() error {
	if f.listenStarted != nil {
		close(f.listenStarted)
	}
	if f.listenErr != nil {
		return f.listenErr
	}
	if f.stopCh != nil {
		<-f.stopCh
	}
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	f.mu.Lock()
	f.shutdownCalled = true
	f.mu.Unlock()
	if f.stopCh != nil {
		close(f.stopCh)
	}
	return nil
}

func (f *fakeHTTPServer) wasShutdownCalled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shutdownCalled
}

const testCSRFSecret = "Abcd1234!Abcd1234!Abcd1234!Abcd1234!"

// testConfig returns a config backed by a private in-memory database with
// demo data.
func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:       "127.0.0.1",
			Port:       8080,
			Mode:       gin.TestMode,
			CSRFSecret: testCSRFSecret,
		},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			SQLite: config.SQLiteConfig{Path: ":memory:"},
		},
		Log: config.LogConfig{Level: "error", Format: "text"},
		Dashboard: config.DashboardConfig{
			PageSize:       10,
			DefaultRange:   "30_days",
			SeedDemoData:   true,
			CurrencySymbol: "₦",
			Timezone:       "UTC",
		},
	}
}

func cleanupTestApp(t *testing.T, a *App) {
	t.Helper()
	if a == nil {
		return
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.logger != nil {
		_ = a.logger.Close()
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { cleanupTestApp(t, a) })
	return a
}

func serve(a *App, method, path string, header map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	a.engine.ServeHTTP(w, req)
	return w
}

func TestValidateGinMode(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		wantErr bool
	}{
		{name: "debug mode", mode: gin.DebugMode, wantErr: false},
		{name: "release mode", mode: gin.ReleaseMode, wantErr: false},
		{name: "test mode", mode: gin.TestMode, wantErr: false},
		{name: "invalid mode", mode: "staging", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateGinMode(tt.mode)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateGinMode() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("New(nil) error = nil, want error")
	}
}

func TestNew_ReturnsError_WhenDatabaseSetupFails(t *testing.T) {
	cfg := testConfig()
	cfg.Database = config.DatabaseConfig{Driver: "unsupported"}

	app, err := New(cfg)
	if err == nil {
		t.Fatalf("New() error = nil, want error")
	}
	if app != nil {
		t.Fatalf("New() app = %#v, want nil", app)
	}
	if !strings.Contains(err.Error(), "setup database") {
		t.Fatalf("New() error = %q, want contains %q", err.Error(), "setup database")
	}
}

func TestResolveCSRFSecret(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		secret   string
		wantErr  bool
		wantSame bool
	}{
		{name: "release rejects empty", mode: gin.ReleaseMode, secret: "", wantErr: true},
		{name: "release rejects placeholder", mode: gin.ReleaseMode, secret: "change-me-in-env", wantErr: true},
		{name: "release keeps configured", mode: gin.ReleaseMode, secret: testCSRFSecret, wantSame: true},
		{name: "debug generates for blank", mode: gin.DebugMode, secret: " "},
		{name: "test generates for placeholder", mode: gin.TestMode, secret: "CHANGE-ME-TO-A-RANDOM-SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveCSRFSecret(config.ServerConfig{Mode: tt.mode, CSRFSecret: tt.secret})
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveCSRFSecret() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.wantSame {
				if got != tt.secret {
					t.Fatalf("resolveCSRFSecret() = %q, want configured secret", got)
				}
				return
			}
			if len(got) != 64 {
				t.Fatalf("generated secret length = %d, want 64", len(got))
			}
		})
	}
}

func TestRateLimitConfig(t *testing.T) {
	if got := rateLimitConfig(config.RateLimitConfig{Enabled: false, RPS: 5, Burst: 10}); got.Rate != 0 {
		t.Fatalf("disabled rate limit Rate = %v, want 0", got.Rate)
	}
	got := rateLimitConfig(config.RateLimitConfig{Enabled: true, RPS: 5, Burst: 10})
	if got.Rate != 5 || got.Burst != 10 {
		t.Fatalf("rateLimitConfig() = %+v, want Rate 5 Burst 10", got)
	}
}

func TestServerWriteTimeout(t *testing.T) {
	tests := []struct {
		name    string
		server  string
		backend string
		want    time.Duration
	}{
		{"defaults", "", "", 40 * time.Second},
		{"whitespace treated as unset", "   ", "", 40 * time.Second},
		{"configured", "15s", "5s", 20 * time.Second},
		{"negative falls back", "-1s", "2s", 32 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Server:  config.ServerConfig{Timeout: tt.server},
				Backend: config.BackendConfig{Timeout: tt.backend},
			}
			if got := serverWriteTimeout(cfg); got != tt.want {
				t.Fatalf("serverWriteTimeout() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew_SeedsDemoDataAndServesDashboard(t *testing.T) {
	a := newTestApp(t, testConfig())

	w := serve(a, http.MethodGet, "/dashboard", map[string]string{"Accept": "text/html"})
	if w.Code != http.StatusOK {
		t.Fatalf("GET /dashboard status = %d, body = %s", w.Code, w.Body.String())
	}
	for _, want := range []string{"Total Revenue", "Processed Orders", `href="/billing"`} {
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	if strings.Contains(w.Body.String(), `href="/settings"`) {
		t.Error("settings link rendered without a backend")
	}

	w = serve(a, http.MethodGet, "/api/v1/orders", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/v1/orders status = %d", w.Code)
	}
	var resp pkg.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode orders: %v", err)
	}
	if resp.Data == nil {
		t.Fatal("orders response has no data")
	}

	w = serve(a, http.MethodGet, "/orders", map[string]string{"HX-Request": "true", "HX-Target": "table-region"})
	if w.Code != http.StatusOK {
		t.Fatalf("GET /orders (htmx) status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "<html") {
		t.Error("htmx table request should render the region fragment only")
	}
}

func TestNew_MetricsAndHealth(t *testing.T) {
	a := newTestApp(t, testConfig())

	if w := serve(a, http.MethodGet, "/health", nil); w.Code != http.StatusOK {
		t.Fatalf("GET /health status = %d", w.Code)
	}
	serve(a, http.MethodGet, "/api/v1/metrics", nil)

	w := serve(a, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`merchantdash_http_requests_total{code="200",method="GET",route="/api/v1/metrics"}`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestNew_BackendEnabled_RegistersSettings(t *testing.T) {
	cfg := testConfig()
	cfg.Backend = config.BackendConfig{BaseURL: "http://127.0.0.1:1", Timeout: "1s"}
	a := newTestApp(t, cfg)

	found := false
	for _, r := range a.engine.Routes() {
		if r.Method == http.MethodGet && r.Path == "/settings" {
			found = true
		}
	}
	if !found {
		t.Fatal("GET /settings not registered with a backend configured")
	}
}

func TestNew_NoBackend_NoSettings(t *testing.T) {
	a := newTestApp(t, testConfig())
	for _, r := range a.engine.Routes() {
		if strings.HasPrefix(r.Path, "/settings") || strings.HasPrefix(r.Path, "/api/v1/settings") {
			t.Fatalf("unexpected settings route %s %s", r.Method, r.Path)
		}
	}
}

func TestPrepareData_ReleaseWithoutSeed_SkipsMigration(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("gorm.Open() error = %v", err)
	}
	cfg := testConfig()
	cfg.Server.Mode = gin.ReleaseMode
	cfg.Dashboard.SeedDemoData = false

	if err := prepareData(context.Background(), cfg, db, logger.Default().Logger); err != nil {
		t.Fatalf("prepareData() error = %v", err)
	}
	if db.Migrator().HasTable("orders") {
		t.Fatal("orders table created outside debug mode without seeding")
	}
}

func TestRun_ReturnsError_WhenListenFails(t *testing.T) {
	originalNewHTTPServer := newHTTPServer
	defer func() { newHTTPServer = originalNewHTTPServer }()

	listenErr := errors.New("listen failed")
	newHTTPServer = func(string, http.Handler, time.Duration) httpServer {
		return &fakeHTTPServer{listenErr: listenErr}
	}

	a := &App{
		engine: gin.New(),
		logger: logger.Default(),
		cfg:    &config.Config{Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080}},
	}

	err := a.Run()
	if err == nil {
		t.Fatalf("Run() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "server error") {
		t.Fatalf("Run() error = %q, want contains %q", err.Error(), "server error")
	}
	if !errors.Is(err, listenErr) {
		t.Fatalf("Run() error = %v, want wraps %v", err, listenErr)
	}
}

func TestRun_ShutdownSignal_ClosesDatabase(t *testing.T) {
	originalNewHTTPServer := newHTTPServer
	originalNotifyContext := notifyContext
	defer func() {
		newHTTPServer = originalNewHTTPServer
		notifyContext = originalNotifyContext
	}()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("gorm.Open() error = %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB() error = %v", err)
	}

	server := &fakeHTTPServer{listenStarted: make(chan struct{}), stopCh: make(chan struct{})}
	var gotTimeout time.Duration
	newHTTPServer = func(_ string, _ http.Handler, writeTimeout time.Duration) httpServer {
		gotTimeout = writeTimeout
		return server
	}

	ctx, cancel := context.WithCancel(context.Background())
	notifyContext = func(context.Context, ...os.Signal) (context.Context, context.CancelFunc) {
		return ctx, cancel
	}

	a := &App{
		engine: gin.New(),
		db:     db,
		logger: logger.Default(),
		cfg: &config.Config{
			Server:  config.ServerConfig{Host: "127.0.0.1", Port: 8080, Timeout: "5s"},
			Backend: config.BackendConfig{Timeout: "3s"},
		},
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run()
	}()

	select {
	case <-server.listenStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start listening in time")
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return in time after shutdown signal")
	}

	if !server.wasShutdownCalled() {
		t.Fatal("expected server Shutdown() to be called")
	}
	if gotTimeout != 8*time.Second {
		t.Fatalf("write timeout = %v, want 8s", gotTimeout)
	}
	if pingErr := sqlDB.Ping(); pingErr == nil {
		t.Fatal("expected database connection to be closed, but Ping() succeeded")
	}
}
