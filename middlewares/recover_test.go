package middlewares_test

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightmvc/lightmvc/internal"
	"github.com/lightmvc/lightmvc/middlewares"
)

func panicking(*http.Request, internal.Next) (*internal.Response, error) {
	panic("kaboom")
}

func TestRecover(t *testing.T) {
	t.Parallel()

	t.Run("converts panic to PanicError", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := middlewares.Recover(middlewares.WithRecoverLogger(slog.New(slog.NewTextHandler(&buf, nil))))
		resp, _, err := internal.NewPipe(mw, panicking).Handle(httptest.NewRequest(http.MethodGet, "/", nil))
		require.Nil(t, resp)

		pe, ok := middlewares.AsPanicError(err)
		require.True(t, ok)
		require.Equal(t, "kaboom", pe.Value)
		require.NotEmpty(t, pe.Stack)
		require.Equal(t, "panic: kaboom", pe.Error())
		require.Contains(t, buf.String(), "panic recovered")
		require.Contains(t, buf.String(), "stack=")
	})

	t.Run("without stack", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := middlewares.Recover(
			middlewares.WithRecoverDisablePrintStack(),
			middlewares.WithRecoverLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		)
		_, _, err := internal.NewPipe(mw, panicking).Handle(httptest.NewRequest(http.MethodGet, "/", nil))
		pe, ok := middlewares.AsPanicError(err)
		require.True(t, ok)
		require.Nil(t, pe.Stack)
		require.NotContains(t, buf.String(), "stack=")
	})

	t.Run("stack size is bounded", func(t *testing.T) {
		t.Parallel()

		mw := middlewares.Recover(
			middlewares.WithRecoverStackSize(64),
			middlewares.WithRecoverLogger(slog.New(slog.DiscardHandler)),
		)
		_, _, err := internal.NewPipe(mw, panicking).Handle(httptest.NewRequest(http.MethodGet, "/", nil))
		pe, ok := middlewares.AsPanicError(err)
		require.True(t, ok)
		require.LessOrEqual(t, len(pe.Stack), 64)
	})

	t.Run("passes through without panic", func(t *testing.T) {
		t.Parallel()

		rec := serve(newApp(middlewares.Recover()), httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("app renders 500", func(t *testing.T) {
		t.Parallel()

		app := newApp(middlewares.Recover(middlewares.WithRecoverLogger(slog.New(slog.DiscardHandler))), panicking)
		rec := serve(app, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("panic with error unwraps", func(t *testing.T) {
		t.Parallel()

		sentinel := errors.New("db gone")
		mw := middlewares.Recover(middlewares.WithRecoverLogger(slog.New(slog.DiscardHandler)))
		_, _, err := internal.NewPipe(mw, func(*http.Request, internal.Next) (*internal.Response, error) {
			panic(sentinel)
		}).Handle(httptest.NewRequest(http.MethodGet, "/", nil))
		require.ErrorIs(t, err, sentinel)
	})

	t.Run("error is not a PanicError", func(t *testing.T) {
		t.Parallel()

		_, ok := middlewares.AsPanicError(internal.ErrNotFound(""))
		require.False(t, ok)
	})
}
