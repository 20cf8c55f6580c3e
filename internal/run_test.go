package internal_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightmvc/lightmvc/internal"
	"github.com/lightmvc/lightmvc/pkg/config"
	"github.com/lightmvc/lightmvc/pkg/container"
	"github.com/lightmvc/lightmvc/pkg/logger"
)

func initializedApp(t *testing.T, closed *int) *internal.App {
	t.Helper()

	app := internal.New(
		internal.WithCustomLogger(logger.Discard()),
		internal.WithViewEngine(echoEngine),
		internal.WithService("resource", func(context.Context, *container.Container) (any, error) {
			return closerFunc(func() error {
				*closed++
				return nil
			}), nil
		}),
	)
	cfg, err := config.FromMap(map[string]any{"address": "127.0.0.1:0"})
	require.NoError(t, err)
	require.NoError(t, app.Initialize(context.Background(), cfg))
	_, err = app.Container().Get(context.Background(), "resource")
	require.NoError(t, err)
	return app
}

func stopped() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

func TestRun_RequiresApps(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, internal.Run(internal.Address("127.0.0.1:0")), internal.ErrNoApps)
}

func TestApp_ServeShutsDownOnContextEnd(t *testing.T) {
	t.Parallel()

	var closed int
	app := initializedApp(t, &closed)

	var hooked bool
	err := app.Serve(
		internal.WithContext(stopped()),
		internal.ShutdownHook(func(context.Context) error {
			hooked = true
			return nil
		}),
	)
	require.NoError(t, err)
	require.True(t, hooked)
	require.Equal(t, 1, closed)
}

func TestRun_ShutsDownEachAppOnce(t *testing.T) {
	t.Parallel()

	var tenantClosed, landingClosed int
	tenant := initializedApp(t, &tenantClosed)
	landing := initializedApp(t, &landingClosed)

	hookErr := errors.New("flush failed")
	err := internal.Run(
		internal.Domain("*.acme.test", tenant),
		internal.Domain("acme.test", tenant),
		internal.Fallback(landing),
		internal.Address("127.0.0.1:0"),
		internal.WithContext(stopped()),
		internal.ShutdownHook(func(context.Context) error { return hookErr }),
	)
	require.ErrorIs(t, err, hookErr)
	require.Equal(t, 1, tenantClosed)
	require.Equal(t, 1, landingClosed)
}
