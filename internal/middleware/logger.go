package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggerConfig configures request logging.
type LoggerConfig struct {
	Logger *slog.Logger
	// SkipPrefixes lists path prefixes that are not logged when the response
	// is successful, e.g. "/static/" and "/health".
	SkipPrefixes []string
}

// Logger logs one line per request at a level chosen by status:
// Info below 400, Warn for 4xx and Error for 5xx.
func Logger(logger *slog.Logger) gin.HandlerFunc {
	return LoggerWithConfig(LoggerConfig{Logger: logger})
}

// LoggerWithConfig is Logger with path skipping.
func LoggerWithConfig(cfg LoggerConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		if status < 400 && skipped(path, cfg.SkipPrefixes) {
			return
		}

		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
			slog.Int("bytes", max(c.Writer.Size(), 0)),
		}
		if route := c.FullPath(); route != "" && route != path {
			attrs = append(attrs, slog.String("route", route))
		}
		if c.GetHeader("HX-Request") == "true" {
			attrs = append(attrs, slog.Bool("htmx", true))
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		log.LogAttrs(c.Request.Context(), level, "request", attrs...)
	}
}

func skipped(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
