package logger

import (
	"os"

	"github.com/ryan-gang/mailqueue/internal/config"
)

// LoggerInterface defines the interface for logging
type LoggerInterface interface {
	Info(v ...any)
	Infof(format string, v ...any)
	Warn(v ...any)
	Warnf(format string, v ...any)
	Error(v ...any)
	Errorf(format string, v ...any)
	Debug(v ...any)
	Debugf(format string, v ...any)
	Close() error
}

var _ LoggerInterface = (*Logger)(nil)

// NewLogger opens the send log configured in cfg. With verbose set, lines
// are mirrored to stderr and debug messages are kept.
func NewLogger(cfg config.ConfigProvider, verbose bool) (LoggerInterface, error) {
	if verbose {
		return Open(cfg.GetLogPath(), os.Stderr, true)
	}
	return Open(cfg.GetLogPath(), nil, false)
}
