// Package observability carries the logging, metrics and tracing used by
// the packaging pipeline.
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/willibrandon/mtlog"
	"github.com/willibrandon/mtlog/core"
	"github.com/willibrandon/mtlog/sinks"
)

// Logger is a structured logger using message templates:
//
//	log.Info("Assigned {PackagePath} to {ItemSpec}", path, spec)
type Logger interface {
	Verbose(messageTemplate string, args ...any)
	Debug(messageTemplate string, args ...any)
	Info(messageTemplate string, args ...any)
	Warn(messageTemplate string, args ...any)
	Error(messageTemplate string, args ...any)

	DebugContext(ctx context.Context, messageTemplate string, args ...any)
	InfoContext(ctx context.Context, messageTemplate string, args ...any)
	WarnContext(ctx context.Context, messageTemplate string, args ...any)
	ErrorContext(ctx context.Context, messageTemplate string, args ...any)

	// ForContext returns a child logger that attaches key to every event.
	ForContext(key string, value any) Logger
}

// LogLevel is the minimum level a logger emits.
type LogLevel int

const (
	VerboseLevel LogLevel = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

// ParseLogLevel accepts the level names used in configuration files and on
// the command line.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "verbose", "trace":
		return VerboseLevel, nil
	case "debug":
		return DebugLevel, nil
	case "", "info", "information":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	}
	return InfoLevel, fmt.Errorf("unknown log level %q", s)
}

type mtlogAdapter struct {
	logger core.Logger
}

// NewLogger writes events at or above level to output.
func NewLogger(output io.Writer, level LogLevel) Logger {
	opts := []mtlog.Option{
		mtlog.WithSink(sinks.NewConsoleSinkWithWriter(output)),
		mtlog.WithTimestamp(),
	}

	switch level {
	case VerboseLevel:
		opts = append(opts, mtlog.Verbose())
	case DebugLevel:
		opts = append(opts, mtlog.Debug())
	case WarnLevel:
		opts = append(opts, mtlog.Warning())
	case ErrorLevel:
		opts = append(opts, mtlog.Error())
	default:
		opts = append(opts, mtlog.Information())
	}

	return &mtlogAdapter{logger: mtlog.New(opts...)}
}

// NewDefaultLogger logs at InfoLevel to stderr.
func NewDefaultLogger() Logger {
	return NewLogger(os.Stderr, InfoLevel)
}

func (a *mtlogAdapter) Verbose(t string, args ...any) { a.logger.Verbose(t, args...) }
func (a *mtlogAdapter) Debug(t string, args ...any)   { a.logger.Debug(t, args...) }
func (a *mtlogAdapter) Info(t string, args ...any)    { a.logger.Info(t, args...) }
func (a *mtlogAdapter) Warn(t string, args ...any)    { a.logger.Warn(t, args...) }
func (a *mtlogAdapter) Error(t string, args ...any)   { a.logger.Error(t, args...) }

func (a *mtlogAdapter) DebugContext(ctx context.Context, t string, args ...any) {
	a.logger.DebugContext(ctx, t, args...)
}

func (a *mtlogAdapter) InfoContext(ctx context.Context, t string, args ...any) {
	a.logger.InfoContext(ctx, t, args...)
}

func (a *mtlogAdapter) WarnContext(ctx context.Context, t string, args ...any) {
	a.logger.WarnContext(ctx, t, args...)
}

func (a *mtlogAdapter) ErrorContext(ctx context.Context, t string, args ...any) {
	a.logger.ErrorContext(ctx, t, args...)
}

func (a *mtlogAdapter) ForContext(key string, value any) Logger {
	return &mtlogAdapter{logger: a.logger.ForContext(key, value)}
}

type nullLogger struct{}

// NewNullLogger discards everything. It is the default for library callers
// that do not supply a logger.
func NewNullLogger() Logger {
	return nullLogger{}
}

func (nullLogger) Verbose(string, ...any)                       {}
func (nullLogger) Debug(string, ...any)                         {}
func (nullLogger) Info(string, ...any)                          {}
func (nullLogger) Warn(string, ...any)                          {}
func (nullLogger) Error(string, ...any)                         {}
func (nullLogger) DebugContext(context.Context, string, ...any) {}
func (nullLogger) InfoContext(context.Context, string, ...any)  {}
func (nullLogger) WarnContext(context.Context, string, ...any)  {}
func (nullLogger) ErrorContext(context.Context, string, ...any) {}
func (n nullLogger) ForContext(string, any) Logger              { return n }
