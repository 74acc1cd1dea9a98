// Package logging adapts zap and slog loggers to autotask.Logger.
package logging

import (
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

// Output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrUnknownFormat is returned for an unsupported log format.
var ErrUnknownFormat = errors.New("unknown log format")

// ZapLogger writes through a zap logger.
type ZapLogger struct {
	logger *zap.Logger
}

var _ autotask.Logger = (*ZapLogger)(nil)

// NewZapLogger wraps logger.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: logger}
}

// Debug logs msg at debug level.
func (l *ZapLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, zapFields(fields)...)
}

// Info logs msg at info level.
func (l *ZapLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, zapFields(fields)...)
}

// Warn logs msg at warn level.
func (l *ZapLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, zapFields(fields)...)
}

// Error logs msg at error level.
func (l *ZapLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, zapFields(fields)...)
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

// SlogLogger writes through a slog logger.
type SlogLogger struct {
	logger *slog.Logger
}

var _ autotask.Logger = (*SlogLogger)(nil)

// NewSlogLogger wraps logger.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

// Debug logs msg at debug level.
func (l *SlogLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, slogArgs(fields)...)
}

// Info logs msg at info level.
func (l *SlogLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, slogArgs(fields)...)
}

// Warn logs msg at warn level.
func (l *SlogLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, slogArgs(fields)...)
}

// Error logs msg at error level.
func (l *SlogLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, slogArgs(fields)...)
}

// New builds a logger writing to w: colourised text through tint, or JSON
// through zap.
func New(format string, verbose bool, w io.Writer) (autotask.Logger, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		handler := tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
		})

		return NewSlogLogger(slog.New(handler)), nil
	case FormatJSON:
		level := zapcore.InfoLevel
		if verbose {
			level = zapcore.DebugLevel
		}

		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(w),
			level,
		)

		return NewZapLogger(zap.New(core)), nil
	default:
		return nil, ErrUnknownFormat
	}
}

func sortedKeys(fields map[string]interface{}) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func zapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	out := make([]zap.Field, 0, len(fields))
	for _, key := range sortedKeys(fields) {
		out = append(out, zap.Any(key, fields[key]))
	}

	return out
}

func slogArgs(fields map[string]interface{}) []any {
	if len(fields) == 0 {
		return nil
	}

	out := make([]any, 0, len(fields))
	for _, key := range sortedKeys(fields) {
		out = append(out, slog.Any(key, fields[key]))
	}

	return out
}
