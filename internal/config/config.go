// Package config loads and validates the dashboard configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/simp-lee/merchantdash/internal/daterange"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Log       LogConfig       `koanf:"log"`
	Backend   BackendConfig   `koanf:"backend"`
	Dashboard DashboardConfig `koanf:"dashboard"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host       string          `koanf:"host"`
	Port       int             `koanf:"port"`
	Mode       string          `koanf:"mode"`
	CSRFSecret string          `koanf:"csrf_secret"`
	Timeout    string          `koanf:"timeout"`
	RateLimit  RateLimitConfig `koanf:"rate_limit"`
}

// RateLimitConfig holds per-client rate limiting settings.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string         `koanf:"driver"`
	SQLite   SQLiteConfig   `koanf:"sqlite"`
	Postgres PostgresConfig `koanf:"postgres"`
	Pool     PoolConfig     `koanf:"pool"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname"`
	SSLMode  string `koanf:"sslmode"`
}

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	ConnMaxLifetime string `koanf:"conn_max_lifetime"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level           string `koanf:"level"`
	Format          string `koanf:"format"`
	Color           *bool  `koanf:"color"`
	FilePath        string `koanf:"file_path"`
	MaxSizeMB       int    `koanf:"max_size_mb"`
	RetentionDays   int    `koanf:"retention_days"`
	MaxBackups      int    `koanf:"max_backups"`
	CompressRotated *bool  `koanf:"compress_rotated"`
}

// BackendConfig points the dashboard at the merchant REST backend.
// An empty BaseURL runs the dashboard on the local database only.
type BackendConfig struct {
	BaseURL   string  `koanf:"base_url"`
	APIKey    string  `koanf:"api_key"`
	Timeout   string  `koanf:"timeout"`
	RateLimit float64 `koanf:"rate_limit"`
	Burst     int     `koanf:"burst"`
}

// Enabled reports whether a backend is configured.
func (b BackendConfig) Enabled() bool { return b.BaseURL != "" }

// TimeoutDuration returns the request timeout, 10s when unset.
func (b BackendConfig) TimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(b.Timeout); err == nil && d > 0 {
		return d
	}
	return defaultBackendTimeout
}

// DashboardConfig holds presentation settings for the tables and cards.
type DashboardConfig struct {
	PageSize       int    `koanf:"page_size"`
	DefaultRange   string `koanf:"default_range"`
	SeedDemoData   bool   `koanf:"seed_demo_data"`
	CurrencySymbol string `koanf:"currency_symbol"`
	Timezone       string `koanf:"timezone"`
}

// Location returns the configured time zone, time.Local when unset.
// Validate has already checked the name.
func (d DashboardConfig) Location() *time.Location {
	if d.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

const (
	defaultBackendTimeout = 10 * time.Second
	defaultPageSize       = 10
	maxPageSize           = 100
	defaultCurrency       = "₦"
	minCSRFSecretLen      = 32
)

// Load reads the YAML file at configPath, overlays APP__ environment
// variables and validates the result. A double underscore separates levels and
// single underscores stay in the key: APP__DATABASE__POOL__MAX_IDLE_CONNS sets
// database.pool.max_idle_conns.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	if err := k.Load(env.Provider("APP__", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "APP__")), "__", ".")
}

// Validate normalizes values in place and rejects unsupported settings.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.Server.validate,
		func() error { return c.Database.validate(c.Server.Mode) },
		c.validateDurations,
		c.Backend.validate,
		c.Dashboard.validate,
		c.Log.validate,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// oneOf returns value trimmed (and lowercased when fold is set) if it is in
// allowed.
func oneOf(field, value string, fold bool, allowed ...string) (string, error) {
	v := strings.TrimSpace(value)
	if fold {
		v = strings.ToLower(v)
	}
	if slices.Contains(allowed, v) {
		return v, nil
	}
	quoted := make([]string, len(allowed))
	for i, a := range allowed {
		quoted[i] = strconv.Quote(a)
	}
	return "", fmt.Errorf("invalid %s %q: must be one of %s", field, value, strings.Join(quoted, ", "))
}

func validPort(field string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid %s %d: must be between 1 and 65535", field, port)
	}
	return nil
}

func required(field, value, when string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", fmt.Errorf("%s is required%s", field, when)
	}
	return v, nil
}

func (s *ServerConfig) validate() error {
	var err error
	if s.Mode, err = oneOf("server.mode", s.Mode, false, gin.DebugMode, gin.ReleaseMode, gin.TestMode); err != nil {
		return err
	}
	if err := validPort("server.port", s.Port); err != nil {
		return err
	}
	if s.Host, err = required("server.host", s.Host, ""); err != nil {
		return err
	}
	if rl := s.RateLimit; rl.Enabled {
		if rl.RPS <= 0 {
			return fmt.Errorf("invalid server.rate_limit.rps %v: must be positive when rate limiting is enabled", rl.RPS)
		}
		if rl.Burst <= 0 {
			return fmt.Errorf("invalid server.rate_limit.burst %d: must be positive when rate limiting is enabled", rl.Burst)
		}
	}

	s.CSRFSecret = strings.TrimSpace(s.CSRFSecret)
	if s.Mode != gin.ReleaseMode {
		return nil
	}
	if len(s.CSRFSecret) < minCSRFSecretLen {
		return fmt.Errorf("invalid server.csrf_secret: must be at least %d characters in release mode", minCSRFSecretLen)
	}
	if CountSecretClasses(s.CSRFSecret) < 3 {
		return errors.New("server.csrf_secret must include at least 3 character classes (lowercase, uppercase, digit, symbol) in release mode")
	}
	return nil
}

func (d *DatabaseConfig) validate(mode string) error {
	var err error
	if d.Driver, err = oneOf("database.driver", d.Driver, false, "sqlite", "postgres"); err != nil {
		return err
	}
	if d.Driver == "sqlite" {
		d.SQLite.Path, err = required("database.sqlite.path", d.SQLite.Path, " when driver is sqlite")
		return err
	}

	pg := &d.Postgres
	const when = " when driver is postgres"
	if pg.Host, err = required("database.postgres.host", pg.Host, when); err != nil {
		return err
	}
	if err := validPort("database.postgres.port", pg.Port); err != nil {
		return err
	}
	if pg.User, err = required("database.postgres.user", pg.User, when); err != nil {
		return err
	}
	if pg.DBName, err = required("database.postgres.dbname", pg.DBName, when); err != nil {
		return err
	}
	tls := []string{"require", "verify-ca", "verify-full"}
	if mode == gin.ReleaseMode {
		pg.SSLMode, err = oneOf("database.postgres.sslmode (release mode)", pg.SSLMode, false, tls...)
	} else {
		pg.SSLMode, err = oneOf("database.postgres.sslmode", pg.SSLMode, false, append([]string{"disable", "allow", "prefer"}, tls...)...)
	}
	return err
}

// validateDurations treats whitespace-only durations as unset.
func (c *Config) validateDurations() error {
	for _, f := range []struct {
		name string
		ptr  *string
	}{
		{"server.timeout", &c.Server.Timeout},
		{"database.pool.conn_max_lifetime", &c.Database.Pool.ConnMaxLifetime},
		{"backend.timeout", &c.Backend.Timeout},
	} {
		*f.ptr = strings.TrimSpace(*f.ptr)
		if *f.ptr == "" {
			continue
		}
		d, err := time.ParseDuration(*f.ptr)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", f.name, *f.ptr, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid %s %q: must be greater than 0", f.name, *f.ptr)
		}
	}
	return nil
}

func (l *LogConfig) validate() error {
	var err error
	if l.Level, err = oneOf("log.level", l.Level, true, "debug", "info", "warn", "error"); err != nil {
		return err
	}
	l.Format, err = oneOf("log.format", l.Format, true, "text", "json")
	return err
}

func (b *BackendConfig) validate() error {
	b.BaseURL = strings.TrimRight(strings.TrimSpace(b.BaseURL), "/")
	b.APIKey = strings.TrimSpace(b.APIKey)
	if b.BaseURL != "" {
		u, err := url.Parse(b.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid backend.base_url %q: must be an absolute http(s) URL", b.BaseURL)
		}
	}
	if b.RateLimit < 0 {
		return fmt.Errorf("invalid backend.rate_limit %v: must not be negative", b.RateLimit)
	}
	if b.RateLimit > 0 && b.Burst <= 0 {
		return fmt.Errorf("invalid backend.burst %d: must be positive when backend.rate_limit is set", b.Burst)
	}
	return nil
}

func (d *DashboardConfig) validate() error {
	switch {
	case d.PageSize == 0:
		d.PageSize = defaultPageSize
	case d.PageSize < 0 || d.PageSize > maxPageSize:
		return fmt.Errorf("invalid dashboard.page_size %d: must be between 1 and %d", d.PageSize, maxPageSize)
	}

	d.DefaultRange = strings.TrimSpace(d.DefaultRange)
	if d.DefaultRange == "" {
		d.DefaultRange = string(daterange.Default)
	} else if !daterange.Known(daterange.Key(d.DefaultRange)) {
		return fmt.Errorf("invalid dashboard.default_range %q", d.DefaultRange)
	}

	d.CurrencySymbol = strings.TrimSpace(d.CurrencySymbol)
	if d.CurrencySymbol == "" {
		d.CurrencySymbol = defaultCurrency
	}

	d.Timezone = strings.TrimSpace(d.Timezone)
	if d.Timezone != "" {
		if _, err := time.LoadLocation(d.Timezone); err != nil {
			return fmt.Errorf("invalid dashboard.timezone %q: %w", d.Timezone, err)
		}
	}
	return nil
}

// CountSecretClasses reports how many of lowercase, uppercase, digit and
// other runes appear in secret.
func CountSecretClasses(secret string) int {
	var seen [4]bool
	for _, r := range secret {
		switch {
		case unicode.IsLower(r):
			seen[0] = true
		case unicode.IsUpper(r):
			seen[1] = true
		case unicode.IsDigit(r):
			seen[2] = true
		default:
			seen[3] = true
		}
	}
	n := 0
	for _, ok := range seen {
		if ok {
			n++
		}
	}
	return n
}
