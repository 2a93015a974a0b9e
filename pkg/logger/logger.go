package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fbinsights/pkg/config"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the structured logger used across the tool
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)

	// WithField, WithFields and WithError return a child logger; the
	// receiver is left unchanged
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	DebugWithFields(msg string, fields map[string]interface{})
	InfoWithFields(msg string, fields map[string]interface{})
	WarnWithFields(msg string, fields map[string]interface{})
	ErrorWithFields(msg string, fields map[string]interface{})
}

type zerologLogger struct {
	zl zerolog.Logger
}

// New creates a Logger from the logging configuration. Entries go to
// stderr, so stdout stays free for the report, and are also appended to
// the log file when one is set.
func New(cfg *config.LoggingConfig) (Logger, error) {
	var out io.Writer = os.Stderr
	if !strings.EqualFold(cfg.Format, "json") {
		out = consoleWriter(os.Stderr)
	}

	if cfg.File != "" {
		file, err := openLogFile(cfg.File)
		if err != nil {
			return nil, err
		}
		out = zerolog.MultiLevelWriter(out, file)
	}

	return NewWithWriter(cfg, out)
}

// NewWithWriter creates a Logger writing JSON lines to w
func NewWithWriter(cfg *config.LoggingConfig, w io.Writer) (Logger, error) {
	level, err := parseLogLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.DurationFieldUnit = time.Millisecond

	return zerologLogger{
		zl: zerolog.New(w).Level(level).With().Timestamp().Str("app", "fbinsights").Logger(),
	}, nil
}

var levelStyles = map[string]lipgloss.Style{
	"debug": lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	"info":  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	"warn":  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	"error": lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
}

var fieldNameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		FormatLevel: func(i interface{}) string {
			level, _ := i.(string)
			label := strings.ToUpper(level)
			if len(label) > 4 {
				label = label[:4]
			}
			if style, ok := levelStyles[level]; ok {
				return style.Render(label)
			}
			return label
		},
		FormatMessage: func(i interface{}) string {
			if i == nil {
				return ""
			}
			return fmt.Sprintf("| %s", i)
		},
		FormatFieldName: func(i interface{}) string {
			return fieldNameStyle.Render(fmt.Sprint(i)) + ":"
		},
	}
}

func openLogFile(path string) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}

// parseLogLevel accepts zerolog's level names plus "warning"
func parseLogLevel(level string) (zerolog.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case "":
		return zerolog.InfoLevel, fmt.Errorf("empty log level")
	case "warning":
		return zerolog.WarnLevel, nil
	}

	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
	return parsed, nil
}

func (l zerologLogger) Debug(msg string) { l.zl.Debug().Msg(msg) }
func (l zerologLogger) Info(msg string)  { l.zl.Info().Msg(msg) }
func (l zerologLogger) Warn(msg string)  { l.zl.Warn().Msg(msg) }
func (l zerologLogger) Error(msg string) { l.zl.Error().Msg(msg) }

func (l zerologLogger) WithField(key string, value interface{}) Logger {
	return zerologLogger{zl: l.zl.With().Interface(key, value).Logger()}
}

func (l zerologLogger) WithFields(fields map[string]interface{}) Logger {
	return zerologLogger{zl: l.zl.With().Fields(fields).Logger()}
}

func (l zerologLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return zerologLogger{zl: l.zl.With().Err(err).Logger()}
}

func (l zerologLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.zl.Debug().Fields(fields).Msg(msg)
}

func (l zerologLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.zl.Info().Fields(fields).Msg(msg)
}

func (l zerologLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.zl.Warn().Fields(fields).Msg(msg)
}

func (l zerologLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.zl.Error().Fields(fields).Msg(msg)
}

var globalLogger Logger

// Initialize installs the configured logger as the global logger and as
// zerolog's package logger
func Initialize(cfg *config.LoggingConfig) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	SetLogger(l)
	return nil
}

// GetLogger returns the global logger, creating an info level one if
// none was installed
func GetLogger() Logger {
	if globalLogger == nil {
		globalLogger, _ = New(&config.LoggingConfig{Level: "info"})
	}
	return globalLogger
}

// SetLogger replaces the global logger
func SetLogger(l Logger) {
	globalLogger = l
	if zl, ok := l.(zerologLogger); ok {
		log.Logger = zl.zl
	}
}

func Debug(msg string) { GetLogger().Debug(msg) }
func Info(msg string)  { GetLogger().Info(msg) }
func Warn(msg string)  { GetLogger().Warn(msg) }
func Error(msg string) { GetLogger().Error(msg) }

// WithField adds a field to the global logger
func WithField(key string, value interface{}) Logger {
	return GetLogger().WithField(key, value)
}

// WithFields adds multiple fields to the global logger
func WithFields(fields map[string]interface{}) Logger {
	return GetLogger().WithFields(fields)
}

// WithError adds an error to the global logger
func WithError(err error) Logger {
	return GetLogger().WithError(err)
}
