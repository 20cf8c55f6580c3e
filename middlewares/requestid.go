package middlewares

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/lightmvc/lightmvc/internal"
	"github.com/lightmvc/lightmvc/pkg/logger"
)

type requestIDKey struct{}

// DefaultRequestIDHeaders are the headers checked (in order) for an existing request ID.
var DefaultRequestIDHeaders = []string{"X-Request-ID", "X-Request-Id", "X-Correlation-ID"}

// RequestIDConfig configures the request ID middleware.
type RequestIDConfig struct {
	Generator      func() string // ID generator function
	ResponseHeader string        // Response header name
	Headers        []string      // Headers to check for existing ID (in order)
}

// RequestIDOption configures RequestIDConfig.
type RequestIDOption func(*RequestIDConfig)

// WithRequestIDHeaders sets the headers to check for existing request IDs.
func WithRequestIDHeaders(headers ...string) RequestIDOption {
	return func(cfg *RequestIDConfig) {
		cfg.Headers = headers
	}
}

// WithRequestIDGenerator sets a custom ID generator function.
func WithRequestIDGenerator(gen func() string) RequestIDOption {
	return func(cfg *RequestIDConfig) {
		cfg.Generator = gen
	}
}

// WithRequestIDResponseHeader sets the response header name.
func WithRequestIDResponseHeader(header string) RequestIDOption {
	return func(cfg *RequestIDConfig) {
		cfg.ResponseHeader = header
	}
}

// RequestID returns middleware that assigns an ID to each request.
// An upstream ID from the configured headers is kept; otherwise a UUID
// is generated. The ID is stored in the request context, copied to the
// X-Request-ID request header and set on the final response.
func RequestID(opts ...RequestIDOption) internal.Middleware {
	cfg := &RequestIDConfig{
		Headers:        DefaultRequestIDHeaders,
		Generator:      uuid.NewString,
		ResponseHeader: internal.RequestIDHeader,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(r *http.Request, next internal.Next) (*internal.Response, error) {
		// First match wins so upstream tracing IDs survive.
		var reqID string
		for _, header := range cfg.Headers {
			if v := r.Header.Get(header); v != "" {
				reqID = v
				break
			}
		}
		if reqID == "" {
			reqID = cfg.Generator()
		}

		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, reqID))
		r.Header.Set(internal.RequestIDHeader, reqID)
		if h := internal.PendingHeaders(r.Context()); h != nil {
			h.Set(cfg.ResponseHeader, reqID)
		}

		resp, err := next(r)
		if resp != nil && resp.Header().Get(cfg.ResponseHeader) == "" {
			resp.Header().Set(cfg.ResponseHeader, reqID)
		}
		return resp, err
	}
}

// GetRequestID returns the request ID stored in ctx, or "".
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// RequestIDExtractor returns a ContextExtractor for use with WithLogger.
// Automatically adds "request_id" to all log entries.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v := GetRequestID(ctx); v != "" {
			return slog.String("request_id", v), true
		}
		return slog.Attr{}, false
	}
}
