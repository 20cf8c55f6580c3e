package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lightmvc/lightmvc/pkg/config"
)

// ErrInvalidLevel indicates an unknown log level name.
var ErrInvalidLevel = errors.New("logger: invalid level")

const sentryFlushTimeout = 2 * time.Second

// New builds the application logger from the log and sentry sections.
// Output goes to stdout, or to a rotating file when cfg.File is set.
// With a Sentry DSN, records at or above the configured level are also
// sent to Sentry. The returned closer flushes Sentry and closes the file.
func New(cfg config.LogConfig, sentryCfg config.SentryConfig, extractors ...ContextExtractor) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	var (
		out     io.Writer = os.Stdout
		closers closerFuncs
	)
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		out = file
		closers = append(closers, file.Close)
	}

	handler := newHandler(out, cfg.Format, level)

	if sentryCfg.DSN != "" {
		sentryHandler, err := newSentryHandler(sentryCfg)
		if err != nil {
			slog.New(handler).Error("failed to initialize sentry", slog.String("error", err.Error()))
		} else {
			handler = fanout{handler, sentryHandler}
			closers = append(closers, func() error {
				sentry.Flush(sentryFlushTimeout)
				return nil
			})
		}
	}

	return slog.New(NewLogHandlerDecorator(handler, extractors...)), closers, nil
}

// ParseLevel converts a level name to slog.Level. Empty means info.
func ParseLevel(name string) (slog.Level, error) {
	if name == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, name)
	}
	return level, nil
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func newSentryHandler(cfg config.SentryConfig) (slog.Handler, error) {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		EnableLogs:  true,
	}); err != nil {
		return nil, err
	}

	// Errors become issues; warnings are only kept as searchable logs.
	logLevel := []slog.Level{slog.LevelWarn, slog.LevelError}
	if minLevel, err := ParseLevel(cfg.MinLevel); err == nil && minLevel >= slog.LevelError {
		logLevel = []slog.Level{slog.LevelError}
	}
	return sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevel,
	}.NewSentryHandler(context.Background()), nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type closerFuncs []func() error

func (c closerFuncs) Close() error {
	var errs []error
	for _, fn := range c {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}
