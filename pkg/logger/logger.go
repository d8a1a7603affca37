// Package logger wraps logrus with the package-level Info/Warn/Error/Debug
// helpers used throughout this codebase, plus a correlation-id-scoped
// logger for tracing one pipeline run across every component it touches.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var std = logrus.New()

func init() {
	std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	std.SetOutput(os.Stdout)
	std.SetLevel(logrus.InfoLevel)
}

// SetLevel parses and applies a level name ("debug", "info", "warn", ...).
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	std.SetLevel(lvl)
	return nil
}

// SetOutput redirects the package logger, mainly for tests.
func SetOutput(w io.Writer) { std.SetOutput(w) }

func Debug(format string, args ...any) { std.Debug(sprintf(format, args...)) }
func Info(format string, args ...any)  { std.Info(sprintf(format, args...)) }
func Warn(format string, args ...any)  { std.Warn(sprintf(format, args...)) }
func Error(format string, args ...any) { std.Error(sprintf(format, args...)) }

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

type correlationKey struct{}

// WithCorrelationID returns a context carrying correlation_id, so that
// ForContext can attach it to every log line emitted during one request.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID reads back the id stashed by WithCorrelationID, or "".
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// ForContext returns an Entry pre-populated with correlation_id and stage
// fields, the way the pipeline tags every stage's log output.
func ForContext(ctx context.Context, stage string) *logrus.Entry {
	return std.WithFields(logrus.Fields{
		"correlation_id": CorrelationID(ctx),
		"stage":          stage,
	})
}
