package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	charmlog "github.com/charmbracelet/log"
)

type ctxKey struct{}

// LoggerCtxKey is the context key holding a *charmlog.Logger
var LoggerCtxKey = ctxKey{}

var defaultLogger = New(DefaultConfig())

// Config holds the logger configuration
type Config struct {
	Level      string
	Output     io.Writer
	JSON       bool
	AddSource  bool
	TimeFormat string
}

// DefaultConfig returns the default logger configuration.
// Logs go to stderr so command output on stdout stays machine readable.
func DefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Output:     os.Stderr,
		JSON:       false,
		AddSource:  false,
		TimeFormat: "15:04:05",
	}
}

// ParseLevel maps a level name onto a charm log level, defaulting to info
func ParseLevel(level string) charmlog.Level {
	parsed, err := charmlog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return charmlog.InfoLevel
	}
	return parsed
}

// New creates a logger from cfg
func New(cfg *Config) *charmlog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	logger := charmlog.NewWithOptions(out, charmlog.Options{
		ReportCaller:    cfg.AddSource,
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		Level:           ParseLevel(cfg.Level),
	})
	if cfg.JSON {
		logger.SetFormatter(charmlog.JSONFormatter)
	} else {
		logger.SetFormatter(charmlog.TextFormatter)
		logger.SetStyles(defaultStyles())
	}
	return logger
}

// Init replaces the process-wide logger
func Init(cfg *Config) {
	defaultLogger = New(cfg)
}

// SetLevel changes the level of the process-wide logger
func SetLevel(level string) {
	defaultLogger.SetLevel(ParseLevel(level))
}

// Default returns the process-wide logger
func Default() *charmlog.Logger {
	return defaultLogger
}

// Discard returns a logger that drops everything, for tests
func Discard() *charmlog.Logger {
	return charmlog.New(io.Discard)
}

// ContextWithLogger attaches logger to ctx
func ContextWithLogger(ctx context.Context, logger *charmlog.Logger) context.Context {
	return context.WithValue(ctx, LoggerCtxKey, logger)
}

// FromContext returns the logger attached to ctx, or the process-wide one
func FromContext(ctx context.Context) *charmlog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(LoggerCtxKey).(*charmlog.Logger); ok && logger != nil {
			return logger
		}
	}
	return defaultLogger
}

func defaultStyles() *charmlog.Styles {
	styles := charmlog.DefaultStyles()
	styles.Levels[charmlog.DebugLevel] = lipgloss.NewStyle().
		SetString("DEBUG").
		Bold(true).
		Foreground(lipgloss.Color("63"))
	styles.Levels[charmlog.InfoLevel] = lipgloss.NewStyle().
		SetString("INFO").
		Bold(true).
		Foreground(lipgloss.Color("86"))
	styles.Levels[charmlog.WarnLevel] = lipgloss.NewStyle().
		SetString("WARN").
		Bold(true).
		Foreground(lipgloss.Color("192"))
	styles.Levels[charmlog.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERROR").
		Bold(true).
		Foreground(lipgloss.Color("204"))
	styles.Keys["err"] = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
	return styles
}
