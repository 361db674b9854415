package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for building the process logger.
type Config struct {
	Level  string    // "debug", "info", "warn", ...; defaults to warn
	Format string    // "console" or "json"
	Output io.Writer // defaults to os.Stderr
}

// New builds a logger. Logs go to stderr by default so they never mix with
// the interactive menu on stdout.
func New(cfg Config) zerolog.Logger {
	level := zerolog.WarnLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err == nil {
			level = parsed
		}
	}
	zerolog.TimeFieldFormat = time.RFC3339

	writer := cfg.Output
	if writer == nil {
		writer = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.Kitchen, NoColor: os.Getenv("NO_COLOR") != ""}
	}

	return zerolog.New(writer).Level(level).With().
		Timestamp().
		Str("service", "moviedb").
		Logger()
}

// WithComponent returns a child logger annotated with the component name.
func WithComponent(base zerolog.Logger, component string) zerolog.Logger {
	return base.With().Str("component", component).Logger()
}
