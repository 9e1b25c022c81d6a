package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const strongSecret = "Xk9#mQ2$vL7pR4tW8zN1cF6hJ3bD5gS0"

// configYAML renders a valid sqlite config. serverExtra is indented into the
// server block; tail is appended as top-level sections.
func configYAML(mode, serverExtra, tail string) string {
	var b strings.Builder
	b.WriteString("server:\n  host: \"127.0.0.1\"\n  port: 3000\n  mode: \"" + mode + "\"\n")
	if mode == "release" {
		b.WriteString("  csrf_secret: \"" + strongSecret + "\"\n")
	}
	b.WriteString(serverExtra)
	b.WriteString(`database:
  driver: "sqlite"
  sqlite:
    path: "data/test.db"
  pool:
    max_idle_conns: 1
    max_open_conns: 1
    conn_max_lifetime: "1m"
log:
  level: "info"
  format: "json"
`)
	b.WriteString(tail)
	return b.String()
}

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func loadYAML(t *testing.T, content string) (*Config, error) {
	t.Helper()
	return Load(writeTestConfig(t, content))
}

func TestLoad_FullYAML(t *testing.T) {
	cfg, err := loadYAML(t, `server:
  host: " 127.0.0.1 "
  port: 3000
  mode: "release"
  csrf_secret: "`+strongSecret+`"
  timeout: "15s"
  rate_limit:
    enabled: true
    rps: 5
    burst: 10
database:
  driver: "postgres"
  postgres:
    host: "db.example.com"
    port: 5433
    user: "admin"
    password: "secret"
    dbname: "merchant"
    sslmode: "require"
  pool:
    max_idle_conns: 5
    max_open_conns: 50
    conn_max_lifetime: "30m"
log:
  level: "WARN"
  format: "json"
backend:
  base_url: "https://api.example.com/v1/"
  api_key: " key-123 "
  timeout: "5s"
  rate_limit: 4
  burst: 8
dashboard:
  page_size: 25
  default_range: "last_week"
  seed_demo_data: true
  currency_symbol: "$"
  timezone: "Africa/Lagos"
`)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 3000 || cfg.Server.Mode != "release" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if !cfg.Server.RateLimit.Enabled || cfg.Server.RateLimit.RPS != 5 || cfg.Server.RateLimit.Burst != 10 {
		t.Errorf("RateLimit = %+v", cfg.Server.RateLimit)
	}
	if cfg.Database.Postgres.Port != 5433 || cfg.Database.Postgres.DBName != "merchant" {
		t.Errorf("Postgres = %+v", cfg.Database.Postgres)
	}
	if cfg.Database.Pool.MaxOpenConns != 50 || cfg.Database.Pool.ConnMaxLifetime != "30m" {
		t.Errorf("Pool = %+v", cfg.Database.Pool)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}

	if cfg.Backend.BaseURL != "https://api.example.com/v1" {
		t.Errorf("Backend.BaseURL = %q, trailing slash not trimmed", cfg.Backend.BaseURL)
	}
	if cfg.Backend.APIKey != "key-123" {
		t.Errorf("Backend.APIKey = %q", cfg.Backend.APIKey)
	}
	if !cfg.Backend.Enabled() || cfg.Backend.TimeoutDuration() != 5*time.Second {
		t.Errorf("Backend enabled=%v timeout=%v", cfg.Backend.Enabled(), cfg.Backend.TimeoutDuration())
	}

	d := cfg.Dashboard
	if d.PageSize != 25 || d.DefaultRange != "last_week" || !d.SeedDemoData || d.CurrencySymbol != "$" {
		t.Errorf("Dashboard = %+v", d)
	}
	if d.Location().String() != "Africa/Lagos" {
		t.Errorf("Location = %v", d.Location())
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadYAML(t, configYAML("debug", "", ""))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Backend.Enabled() {
		t.Error("backend should be disabled without base_url")
	}
	if cfg.Backend.TimeoutDuration() != 10*time.Second {
		t.Errorf("TimeoutDuration = %v, want 10s", cfg.Backend.TimeoutDuration())
	}
	if cfg.Dashboard.PageSize != 10 {
		t.Errorf("PageSize = %d, want 10", cfg.Dashboard.PageSize)
	}
	if cfg.Dashboard.DefaultRange != "30_days" {
		t.Errorf("DefaultRange = %q, want 30_days", cfg.Dashboard.DefaultRange)
	}
	if cfg.Dashboard.CurrencySymbol != "₦" {
		t.Errorf("CurrencySymbol = %q", cfg.Dashboard.CurrencySymbol)
	}
	if cfg.Dashboard.Location() != time.Local {
		t.Errorf("Location = %v, want Local", cfg.Dashboard.Location())
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeTestConfig(t, configYAML("debug", "", ""))

	t.Setenv("APP__SERVER__PORT", "9090")
	t.Setenv("APP__LOG__LEVEL", "error")
	t.Setenv("APP__DATABASE__POOL__MAX_OPEN_CONNS", "200")
	t.Setenv("APP__BACKEND__BASE_URL", "http://localhost:4000")
	t.Setenv("APP__DASHBOARD__PAGE_SIZE", "50")
	t.Setenv("APP__DASHBOARD__SEED_DEMO_DATA", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want error", cfg.Log.Level)
	}
	if cfg.Database.Pool.MaxOpenConns != 200 {
		t.Errorf("Pool.MaxOpenConns = %d, want 200", cfg.Database.Pool.MaxOpenConns)
	}
	if cfg.Backend.BaseURL != "http://localhost:4000" {
		t.Errorf("Backend.BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Dashboard.PageSize != 50 || !cfg.Dashboard.SeedDemoData {
		t.Errorf("Dashboard = %+v", cfg.Dashboard)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"server mode", strings.Replace(configYAML("debug", "", ""), `mode: "debug"`, `mode: "staging"`, 1), "server.mode"},
		{"port zero", strings.Replace(configYAML("debug", "", ""), "port: 3000", "port: 0", 1), "server.port"},
		{"port too large", strings.Replace(configYAML("debug", "", ""), "port: 3000", "port: 70000", 1), "server.port"},
		{"empty host", strings.Replace(configYAML("debug", "", ""), `host: "127.0.0.1"`, `host: "  "`, 1), "server.host"},
		{"driver", strings.Replace(configYAML("debug", "", ""), `driver: "sqlite"`, `driver: "mysql"`, 1), "database.driver"},
		{"sqlite path", strings.Replace(configYAML("debug", "", ""), `path: "data/test.db"`, `path: ""`, 1), "database.sqlite.path"},
		{"server timeout", configYAML("debug", "  timeout: \"0s\"\n", ""), "server.timeout"},
		{"pool lifetime", strings.Replace(configYAML("debug", "", ""), `conn_max_lifetime: "1m"`, `conn_max_lifetime: "forever"`, 1), "database.pool.conn_max_lifetime"},
		{"rate limit rps", configYAML("debug", "  rate_limit:\n    enabled: true\n    rps: 0\n    burst: 5\n", ""), "server.rate_limit.rps"},
		{"rate limit burst", configYAML("debug", "  rate_limit:\n    enabled: true\n    rps: 2\n", ""), "server.rate_limit.burst"},
		{"release short secret", strings.Replace(configYAML("release", "", ""), strongSecret, "short", 1), "csrf_secret"},
		{"release weak secret", strings.Replace(configYAML("release", "", ""), strongSecret, strings.Repeat("a", 40), 1), "character classes"},
		{"log level", strings.Replace(configYAML("debug", "", ""), `level: "info"`, `level: "trace"`, 1), "log.level"},
		{"log format", strings.Replace(configYAML("debug", "", ""), `format: "json"`, `format: "xml"`, 1), "log.format"},
		{"backend url scheme", configYAML("debug", "", "backend:\n  base_url: \"ftp://example.com\"\n"), "backend.base_url"},
		{"backend relative url", configYAML("debug", "", "backend:\n  base_url: \"/api\"\n"), "backend.base_url"},
		{"backend timeout", configYAML("debug", "", "backend:\n  base_url: \"http://x.test\"\n  timeout: \"-5s\"\n"), "backend.timeout"},
		{"backend negative rate", configYAML("debug", "", "backend:\n  rate_limit: -1\n"), "backend.rate_limit"},
		{"backend burst", configYAML("debug", "", "backend:\n  rate_limit: 3\n"), "backend.burst"},
		{"page size", configYAML("debug", "", "dashboard:\n  page_size: 500\n"), "dashboard.page_size"},
		{"default range", configYAML("debug", "", "dashboard:\n  default_range: \"forever\"\n"), "dashboard.default_range"},
		{"timezone", configYAML("debug", "", "dashboard:\n  timezone: \"Mars/Olympus\"\n"), "dashboard.timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadYAML(t, tt.yaml)
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load() error = %v, want contains %q", err, tt.want)
			}
		})
	}
}

func TestLoad_PostgresValidation(t *testing.T) {
	pg := func(mode, fields string) string {
		y := configYAML(mode, "", "")
		return strings.Replace(y, "  driver: \"sqlite\"\n", "  driver: \"postgres\"\n  postgres:\n"+fields, 1)
	}
	const complete = "    host: \"db\"\n    port: 5432\n    user: \"u\"\n    dbname: \"d\"\n"

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing host", pg("debug", "    port: 5432\n    user: \"u\"\n    dbname: \"d\"\n    sslmode: \"disable\"\n"), "database.postgres.host"},
		{"bad port", pg("debug", "    host: \"db\"\n    port: 0\n    user: \"u\"\n    dbname: \"d\"\n    sslmode: \"disable\"\n"), "database.postgres.port"},
		{"missing user", pg("debug", "    host: \"db\"\n    port: 5432\n    dbname: \"d\"\n    sslmode: \"disable\"\n"), "database.postgres.user"},
		{"missing dbname", pg("debug", "    host: \"db\"\n    port: 5432\n    user: \"u\"\n    sslmode: \"disable\"\n"), "database.postgres.dbname"},
		{"unknown sslmode", pg("debug", complete+"    sslmode: \"maybe\"\n"), "database.postgres.sslmode"},
		{"release needs tls", pg("release", complete+"    sslmode: \"disable\"\n"), "database.postgres.sslmode"},
		{"debug allows disable", pg("debug", complete+"    sslmode: \"disable\"\n"), ""},
		{"release with verify-full", pg("release", complete+"    sslmode: \"verify-full\"\n"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadYAML(t, tt.yaml)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Load() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Load() error = %v, want contains %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_WhitespaceDurationsAreUnset(t *testing.T) {
	y := strings.Replace(configYAML("debug", "  timeout: \"   \"\n", "backend:\n  timeout: \" \"\n"),
		`conn_max_lifetime: "1m"`, `conn_max_lifetime: "  "`, 1)
	cfg, err := loadYAML(t, y)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Timeout != "" || cfg.Database.Pool.ConnMaxLifetime != "" || cfg.Backend.Timeout != "" {
		t.Errorf("durations not normalized: server=%q pool=%q backend=%q",
			cfg.Server.Timeout, cfg.Database.Pool.ConnMaxLifetime, cfg.Backend.Timeout)
	}
}

func TestLoad_ProjectConfig(t *testing.T) {
	cfg, err := Load("../../configs/config.yaml")
	if err != nil {
		t.Fatalf("Load() error on project config: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Database.Driver != "sqlite" {
		t.Errorf("Server.Port = %d, Driver = %q", cfg.Server.Port, cfg.Database.Driver)
	}
	if cfg.Database.Pool.MaxIdleConns != 10 || cfg.Database.Pool.MaxOpenConns != 100 || cfg.Database.Pool.ConnMaxLifetime != "1h" {
		t.Errorf("Pool = %+v", cfg.Database.Pool)
	}
	if cfg.Backend.Enabled() {
		t.Error("project config should run against the local database")
	}
	if cfg.Dashboard.DefaultRange != "30_days" || !cfg.Dashboard.SeedDemoData {
		t.Errorf("Dashboard = %+v", cfg.Dashboard)
	}
}

func TestCountSecretClasses(t *testing.T) {
	tests := []struct {
		secret string
		want   int
	}{
		{"", 0},
		{"abcdef", 1},
		{"ABCDEF", 1},
		{"123456", 1},
		{"!@#$%^", 1},
		{"abcDEF", 2},
		{"abcDEF123", 3},
		{"abcDEF123!", 4},
		{"aA1 ", 4},
	}
	for _, tt := range tests {
		if got := CountSecretClasses(tt.secret); got != tt.want {
			t.Errorf("CountSecretClasses(%q) = %d, want %d", tt.secret, got, tt.want)
		}
	}
}
