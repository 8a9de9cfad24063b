package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/nerrad567/bakery-api/internal/infrastructure/config"
)

// serviceName is attached to every log entry.
const serviceName = "bakery-api"

// Attribute keys shared by every Bakery API log line.
const (
	KeyService   = "service"
	KeyVersion   = "version"
	KeyComponent = "component"
	KeyRequestID = "request_id"
)

// Logger is the Bakery API's structured logger. Child loggers are derived
// per component ("api", "store") and per request.
//
// It is safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New builds a logger from the logging section of the config. Unknown
// formats fall back to JSON and unknown outputs to stdout.
func New(cfg config.LoggingConfig, version string) *Logger {
	return NewTo(outputFor(cfg.Output), cfg, version)
}

// NewTo is New with an explicit destination.
func NewTo(w io.Writer, cfg config.LoggingConfig, version string) *Logger {
	opts := &slog.HandlerOptions{
		Level:       ParseLevel(cfg.Level),
		ReplaceAttr: utcTimestamps,
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{Logger: slog.New(handler).With(
		KeyService, serviceName,
		KeyVersion, version,
	)}
}

// Default is the pre-config startup logger: JSON at info level on stdout.
func Default() *Logger {
	return New(config.LoggingConfig{}, "dev")
}

// Discard returns a logger that drops all output.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// Component returns a child logger tagged with the subsystem name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.Logger.With(KeyComponent, name)}
}

// Request returns a child logger tagged with a request ID. An empty ID
// returns l unchanged.
func (l *Logger) Request(id string) *Logger {
	if id == "" {
		return l
	}
	return &Logger{Logger: l.Logger.With(KeyRequestID, id)}
}

// ParseLevel accepts slog level names in any case ("debug", "INFO",
// "warn+2") plus the "warning" alias. Anything else is info.
func ParseLevel(s string) slog.Level {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func outputFor(name string) io.Writer {
	if strings.EqualFold(name, "stderr") {
		return os.Stderr
	}
	return os.Stdout
}

// utcTimestamps rewrites the record time in UTC so entries line up with the
// UTC created_at values served by the API.
func utcTimestamps(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		a.Value = slog.TimeValue(a.Value.Time().UTC().Truncate(time.Millisecond))
	}
	return a
}
