package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	EnvLogLevel     = "LOG_LEVEL"
	EnvLogFormat    = "LOG_FORMAT"
	DefaultLogLevel = slog.LevelInfo
)

type Opts struct {
	ServiceName string
	Level       slog.Level
	AddSource   bool
	JSON        bool
	Writer      io.Writer
}

// New builds a logger without touching the process default
func New(o Opts) *slog.Logger {
	var handler slog.Handler

	w := o.Writer
	if w == nil {
		w = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     o.Level,
		AddSource: o.AddSource,
	}

	if o.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	// Set service name to all log entries
	handler = handler.WithAttrs([]slog.Attr{slog.String("service", o.ServiceName)})
	return slog.New(handler)
}

// Setup builds a logger and installs it as the default
func Setup(o Opts) *slog.Logger {
	logger := New(o)
	slog.SetDefault(logger)
	return logger
}

func SetupFromEnv(serviceName string) *slog.Logger {
	level := GetLogLevelFromEnv()
	return Setup(Opts{
		ServiceName: serviceName,
		Level:       level,
		AddSource:   level <= slog.LevelDebug, // When debug, add source file/line info
		JSON:        !strings.EqualFold(os.Getenv(EnvLogFormat), "text"),
	})
}

func GetLogLevelFromEnv() slog.Level {
	return ParseLevel(os.Getenv(EnvLogLevel))
}

// ParseLevel maps a level name to a slog level, falling back to the default
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return DefaultLogLevel
	}
}
