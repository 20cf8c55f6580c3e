package middlewares_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightmvc/lightmvc/internal"
	"github.com/lightmvc/lightmvc/middlewares"
	"github.com/lightmvc/lightmvc/pkg/logger"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates new request ID when not present", func(t *testing.T) {
		t.Parallel()

		rec := serve(newApp(middlewares.RequestID()), httptest.NewRequest(http.MethodGet, "/", nil))
		id := rec.Header().Get("X-Request-ID")
		require.Len(t, id, 36)
		require.Equal(t, "id="+id, rec.Body.String())
	})

	t.Run("keeps upstream ID", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Correlation-ID", "trace-123")
		rec := serve(newApp(middlewares.RequestID()), req)
		require.Equal(t, "trace-123", rec.Header().Get("X-Request-ID"))
		require.Equal(t, "id=trace-123", rec.Body.String())
	})

	t.Run("custom generator and header", func(t *testing.T) {
		t.Parallel()

		mw := middlewares.RequestID(
			middlewares.WithRequestIDGenerator(func() string { return "fixed" }),
			middlewares.WithRequestIDResponseHeader("X-Trace-ID"),
			middlewares.WithRequestIDHeaders("X-Trace-ID"),
		)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "ignored")
		rec := serve(newApp(mw), req)
		require.Equal(t, "fixed", rec.Header().Get("X-Trace-ID"))
		require.Equal(t, "id=fixed", rec.Body.String())
	})

	t.Run("sets header on responses answered in the pipe", func(t *testing.T) {
		t.Parallel()

		answer := func(*http.Request, internal.Next) (*internal.Response, error) {
			return internal.Text(http.StatusTeapot, "short"), nil
		}
		pipe := internal.NewPipe(middlewares.RequestID(middlewares.WithRequestIDGenerator(func() string { return "abc" })), answer)
		resp, _, err := pipe.Handle(httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		require.Equal(t, "abc", resp.Header().Get("X-Request-ID"))
	})
}

func TestRequestIDExtractor(t *testing.T) {
	t.Parallel()

	extractor := middlewares.RequestIDExtractor()
	_, ok := extractor(context.Background())
	require.False(t, ok)

	var buf bytes.Buffer
	log := slog.New(logger.NewLogHandlerDecorator(slog.NewTextHandler(&buf, nil), extractor))
	app := internal.New(
		internal.WithMiddleware(middlewares.RequestID(middlewares.WithRequestIDGenerator(func() string { return "req-7" }))),
		internal.WithNotFound(func(e *internal.Event) (any, error) {
			log.InfoContext(e.Context(), "handled")
			return internal.Text(http.StatusOK, "ok"), nil
		}),
	)
	serve(app, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Contains(t, buf.String(), "request_id=req-7")
}
