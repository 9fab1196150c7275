// Package logger builds the zerolog logger shared by every binary.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"gitlab.connectwisedev.com/inventory-service/pkg/config"
)

// New returns a JSON logger, or a console logger when running locally.
func New(cfg config.Config) zerolog.Logger {
	var out io.Writer = os.Stdout
	if cfg.IsLocal() {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}
	return NewWithWriter(out, cfg.LogLevel).With().Str("app_env", cfg.AppEnv).Logger()
}

// NewWithWriter returns a timestamped logger at the given level. Unknown levels fall back to info.
func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Bootstrap is used before configuration is loaded.
func Bootstrap() zerolog.Logger {
	return NewWithWriter(os.Stdout, "info")
}
