package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// SetupDatabase opens the dashboard database and configures its pool.
//
// SQL is logged through logger so queries carry the request attributes of
// their context. With a debug-level logger every statement is logged;
// otherwise only slow queries and errors.
func SetupDatabase(cfg *DatabaseConfig, logger *slog.Logger) (*gorm.DB, error) {
	if cfg == nil {
		return nil, errors.New("database config is nil")
	}
	if logger == nil {
		return nil, errors.New("logger is nil")
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dir := filepath.Dir(cfg.SQLite.Path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory %q: %w", dir, err)
			}
		}
		dialector = sqlite.Open(sqliteDSN(cfg.SQLite.Path))
	case "postgres":
		dialector = postgres.Open(buildPostgresDSN(&cfg.Postgres))
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(logger),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pool, err := resolvePool(cfg)
	if err == nil {
		err = pool.apply(db)
	}
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, err
	}

	logger.Info("database connected",
		slog.String("driver", cfg.Driver),
		slog.Int("max_idle_conns", pool.maxIdle),
		slog.Int("max_open_conns", pool.maxOpen),
		slog.Duration("conn_max_lifetime", pool.lifetime),
	)
	return db, nil
}

func newGormLogger(logger *slog.Logger) gormlogger.Interface {
	level := gormlogger.Warn
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		level = gormlogger.Info
	}
	return gormlogger.NewSlogLogger(logger, gormlogger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// sqliteDSN enables foreign keys and a busy timeout on every connection.
// File databases also switch to WAL so dashboard reads do not block the
// seeder or row edits.
func sqliteDSN(path string) string {
	pragmas := url.Values{}
	pragmas.Add("_pragma", "foreign_keys(1)")
	pragmas.Add("_pragma", "busy_timeout(5000)")
	if !isMemoryPath(path) {
		pragmas.Add("_pragma", "journal_mode(WAL)")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + pragmas.Encode()
}

func isMemoryPath(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file::memory:")
}

type poolSettings struct {
	maxIdle  int
	maxOpen  int
	lifetime time.Duration
}

// resolvePool fills unset pool fields with defaults: 10 idle, 100 open and a
// 1h lifetime. In-memory SQLite is pinned to one connection since each
// connection would otherwise see its own empty database.
func resolvePool(cfg *DatabaseConfig) (poolSettings, error) {
	pool := &cfg.Pool
	s := poolSettings{
		maxIdle: effectiveMaxIdleConns(pool.MaxIdleConns),
		maxOpen: effectiveMaxOpenConns(pool.MaxOpenConns),
	}

	raw := effectiveConnMaxLifetime(pool.ConnMaxLifetime)
	lifetime, err := time.ParseDuration(raw)
	if err != nil {
		return s, fmt.Errorf("invalid pool.conn_max_lifetime %q: %w", pool.ConnMaxLifetime, err)
	}
	if lifetime <= 0 {
		return s, fmt.Errorf("invalid pool.conn_max_lifetime %q: must be greater than 0", pool.ConnMaxLifetime)
	}
	s.lifetime = lifetime

	if cfg.Driver == "sqlite" && isMemoryPath(cfg.SQLite.Path) {
		s.maxIdle, s.maxOpen = 1, 1
	}
	return s, nil
}

func (s poolSettings) apply(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(s.maxIdle)
	sqlDB.SetMaxOpenConns(s.maxOpen)
	sqlDB.SetConnMaxLifetime(s.lifetime)
	return nil
}

func effectiveMaxIdleConns(v int) int {
	if v <= 0 {
		return 10
	}
	return v
}

func effectiveMaxOpenConns(v int) int {
	if v <= 0 {
		return 100
	}
	return v
}

func effectiveConnMaxLifetime(v string) string {
	if strings.TrimSpace(v) == "" {
		return "1h"
	}
	return v
}

func buildPostgresDSN(cfg *PostgresConfig) string {
	if cfg == nil {
		return ""
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   cfg.DBName,
	}
	if cfg.User != "" || cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}

	query := url.Values{}
	if cfg.SSLMode != "" {
		query.Set("sslmode", cfg.SSLMode)
	}
	query.Set("application_name", "merchantdash")
	u.RawQuery = query.Encode()

	return u.String()
}
