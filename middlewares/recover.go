package middlewares

import (
	"log/slog"
	"net/http"
	"runtime"

	"github.com/lightmvc/lightmvc/internal"
)

// DefaultStackSize is the default maximum stack trace size in bytes.
const DefaultStackSize = 4096

// RecoverConfig configures the recover middleware.
type RecoverConfig struct {
	Logger            *slog.Logger
	StackSize         int  // Max stack trace size (default: 4096)
	DisablePrintStack bool // Disable stack trace in logs
}

// RecoverOption configures RecoverConfig.
type RecoverOption func(*RecoverConfig)

// WithRecoverStackSize sets the maximum stack trace size.
func WithRecoverStackSize(size int) RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.StackSize = size
	}
}

// WithRecoverDisablePrintStack disables including stack trace in logs.
func WithRecoverDisablePrintStack() RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.DisablePrintStack = true
	}
}

// WithRecoverLogger sets the logger panics are reported to.
// Defaults to slog.Default().
func WithRecoverLogger(l *slog.Logger) RecoverOption {
	return func(cfg *RecoverConfig) {
		if l != nil {
			cfg.Logger = l
		}
	}
}

// Recover returns middleware that turns panics in later middleware into a
// *PanicError. The error reaches the app's ErrorHandler like any other
// bootstrap failure. Request ID is included via RequestIDExtractor() if configured.
func Recover(opts ...RecoverOption) internal.Middleware {
	cfg := &RecoverConfig{
		StackSize: DefaultStackSize,
		Logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(r *http.Request, next internal.Next) (resp *internal.Response, err error) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if p == http.ErrAbortHandler {
				panic(p)
			}

			var stack []byte
			attrs := []any{slog.Any("panic", p)}
			if !cfg.DisablePrintStack {
				stack = make([]byte, cfg.StackSize)
				stack = stack[:runtime.Stack(stack, false)]
				attrs = append(attrs, slog.String("stack", string(stack)))
			}
			cfg.Logger.ErrorContext(r.Context(), "panic recovered", attrs...)

			resp, err = nil, &PanicError{Value: p, Stack: stack}
		}()

		return next(r)
	}
}
