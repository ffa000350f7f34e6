package app

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"nodekit/internal/config"
)

// NewLogger builds the process logger from the [logging] table. verbose
// forces debug level.
func NewLogger(w io.Writer, cfg config.LoggingConfig, verbose bool) *log.Logger {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	if verbose {
		level = log.DebugLevel
	}
	opts := log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
		Prefix:          "nodekit",
	}
	switch cfg.Format {
	case "json":
		opts.Formatter = log.JSONFormatter
		opts.TimeFormat = time.RFC3339
	case "logfmt":
		opts.Formatter = log.LogfmtFormatter
		opts.TimeFormat = time.RFC3339
	default:
		opts.Formatter = log.TextFormatter
	}
	return log.NewWithOptions(w, opts)
}
