package config

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/simp-lee/logger"
)

// SetupLogger builds the application logger from cfg and installs it as
// slog.Default. The caller must Close it.
func SetupLogger(cfg *LogConfig) (*logger.Logger, error) {
	opts := LoggerOptions(cfg)
	if opts == nil {
		return nil, errors.New("log config is nil")
	}
	log, err := logger.New(opts...)
	if err != nil {
		return nil, err
	}
	log.SetDefault()
	return log, nil
}

// LoggerOptions translates cfg into logger options. Console output is always
// on; a file sink with rotation is added when FilePath is set. Context
// attributes such as request_id are attached to every record.
func LoggerOptions(cfg *LogConfig) []logger.Option {
	if cfg == nil {
		return nil
	}

	format := outputFormat(cfg.Format)
	color := true
	if cfg.Color != nil {
		color = *cfg.Color
	}

	opts := []logger.Option{
		logger.WithLevel(parseLevel(cfg.Level)),
		logger.WithMiddleware(logger.ContextMiddleware()),
		logger.WithConsoleFormat(format),
		logger.WithConsoleColor(color),
	}
	if cfg.FilePath == "" {
		return opts
	}

	opts = append(opts,
		logger.WithFilePath(cfg.FilePath),
		logger.WithFileFormat(format),
	)
	if cfg.MaxSizeMB > 0 {
		opts = append(opts, logger.WithMaxSizeMB(cfg.MaxSizeMB))
	}
	if cfg.RetentionDays > 0 {
		opts = append(opts, logger.WithRetentionDays(cfg.RetentionDays))
	}
	if cfg.MaxBackups > 0 {
		opts = append(opts, logger.WithMaxBackups(cfg.MaxBackups))
	}
	if cfg.CompressRotated != nil {
		opts = append(opts, logger.WithCompressRotated(*cfg.CompressRotated))
	}
	return opts
}

func outputFormat(s string) logger.OutputFormat {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return logger.FormatJSON
	}
	return logger.FormatText
}

// parseLevel accepts slog level names in any case; anything else is info.
func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
