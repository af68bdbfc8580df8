package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config controls where log output goes and how much of it is produced.
// It is kept separate from the application configuration so that packages
// can construct loggers without pulling in the config package.
type Config struct {
	// Level is one of debug, info, warn, error, fatal, panic, disabled.
	Level string
	// File, when set, appends JSON log lines to the given path in addition
	// to the console output.
	File string
}

// Logger is the logging interface used throughout the module. The
// *WithFields variants attach context to a single entry, while WithField,
// WithFields and WithError derive child loggers whose context rides on
// every entry they emit.
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Fatal(msg string)

	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger

	DebugWithFields(msg string, fields map[string]interface{})
	InfoWithFields(msg string, fields map[string]interface{})
	WarnWithFields(msg string, fields map[string]interface{})
	ErrorWithFields(msg string, fields map[string]interface{})
	FatalWithFields(msg string, fields map[string]interface{})

	// GetZerolog exposes the underlying zerolog instance for advanced usage.
	GetZerolog() *zerolog.Logger
}

// zerologLogger implements Logger on top of zerolog. Child loggers are
// derived through zerolog's context builder, so a parent is never mutated
// by WithField and friends.
type zerologLogger struct {
	z zerolog.Logger
}

// New creates a Logger from the given configuration.
func New(cfg *Config) (Logger, error) {
	level, err := parseLogLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	var output io.Writer = consoleWriter()
	if cfg.File != "" {
		fileOutput, err := openLogFile(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("failed to setup file output: %w", err)
		}
		output = zerolog.MultiLevelWriter(consoleWriter(), fileOutput)
	}

	z := zerolog.New(output).With().
		Timestamp().
		Str("app", "lxpfetch").
		Logger()

	return &zerologLogger{z: z}, nil
}

// levelTags are the colored four-letter level markers shown on the console.
var levelTags = map[string]string{
	"debug": "\033[37mDEBG\033[0m",
	"info":  "\033[32mINFO\033[0m",
	"warn":  "\033[33mWARN\033[0m",
	"error": "\033[31mERRO\033[0m",
	"fatal": "\033[35mFATL\033[0m",
}

// consoleWriter builds the pretty console output used for interactive runs.
func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
		FormatLevel: func(i interface{}) string {
			if i == nil {
				return ""
			}
			name := fmt.Sprintf("%s", i)
			if tag, ok := levelTags[name]; ok {
				return tag
			}
			return strings.ToUpper(name)
		},
		FormatMessage: func(i interface{}) string {
			if i == nil {
				return ""
			}
			return fmt.Sprintf("| %s", i)
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprintf("\033[36m%s\033[0m:", i)
		},
		FormatFieldValue: func(i interface{}) string {
			return fmt.Sprintf("%s", i)
		},
	}
}

// openLogFile opens the log file for appending, creating parent directories
// as needed.
func openLogFile(path string) (io.Writer, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}

// parseLogLevel resolves the configured level name, accepting a couple of
// spellings zerolog itself does not.
func parseLogLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	}

	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
	return parsed, nil
}

func (l *zerologLogger) Debug(msg string) { l.z.Debug().Msg(msg) }
func (l *zerologLogger) Info(msg string)  { l.z.Info().Msg(msg) }
func (l *zerologLogger) Warn(msg string)  { l.z.Warn().Msg(msg) }
func (l *zerologLogger) Error(msg string) { l.z.Error().Msg(msg) }
func (l *zerologLogger) Fatal(msg string) { l.z.Fatal().Msg(msg) }

// WithField derives a child logger carrying one extra context field.
func (l *zerologLogger) WithField(key string, value interface{}) Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields derives a child logger carrying the given context fields.
func (l *zerologLogger) WithFields(fields map[string]interface{}) Logger {
	return &zerologLogger{z: l.z.With().Fields(fields).Logger()}
}

// WithError derives a child logger carrying the error as a context field.
func (l *zerologLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return &zerologLogger{z: l.z.With().Err(err).Logger()}
}

func (l *zerologLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	l.z.Debug().Fields(fields).Msg(msg)
}

func (l *zerologLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	l.z.Info().Fields(fields).Msg(msg)
}

func (l *zerologLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	l.z.Warn().Fields(fields).Msg(msg)
}

func (l *zerologLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	l.z.Error().Fields(fields).Msg(msg)
}

func (l *zerologLogger) FatalWithFields(msg string, fields map[string]interface{}) {
	l.z.Fatal().Fields(fields).Msg(msg)
}

// GetZerolog returns the underlying zerolog instance.
func (l *zerologLogger) GetZerolog() *zerolog.Logger {
	return &l.z
}

// Global logger instance
var globalLogger Logger

// Initialize sets up the global logger returned by GetLogger and mirrors it
// into zerolog's package-level logger.
func Initialize(cfg *Config) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	globalLogger = l
	log.Logger = *l.GetZerolog()
	return nil
}

// GetLogger returns the global logger, creating an info-level one on first
// use if Initialize was never called.
func GetLogger() Logger {
	if globalLogger == nil {
		globalLogger, _ = New(&Config{Level: "info"})
	}
	return globalLogger
}
