// Package logger builds the hclog loggers used across taskguard.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/boshu2/taskguard/internal/config"
)

// New returns a logger writing to stderr, so reports on stdout stay clean.
func New(cfg *config.Config, name string) hclog.Logger {
	return NewWithOutput(cfg, name, os.Stderr)
}

// NewWithOutput returns a logger writing to w. The level comes from the
// config when set, then from TASKGUARD_LOG_LEVEL, and defaults to info.
// Verbose raises the default to debug.
func NewWithOutput(cfg *config.Config, name string, w io.Writer) hclog.Logger {
	var level hclog.Level
	switch {
	case cfg != nil && cfg.LogLevel != "":
		level = getLogLevel(cfg.LogLevel)
	case os.Getenv(config.EnvLogLevel) != "":
		level = getLogLevel(os.Getenv(config.EnvLogLevel))
	case cfg != nil && cfg.Verbose:
		level = hclog.Debug
	default:
		level = hclog.Info
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:        name,
		DisableTime: true,
		Output:      w,
		Level:       level,
	})
}

func getLogLevel(levelStr string) hclog.Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "TRACE":
		return hclog.Trace
	case "DEBUG":
		return hclog.Debug
	case "INFO":
		return hclog.Info
	case "WARN":
		return hclog.Warn
	case "ERROR":
		return hclog.Error
	case "OFF":
		return hclog.Off
	default:
		return hclog.Info
	}
}
