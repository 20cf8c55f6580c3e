package internal_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/lightmvc/lightmvc/internal"
	"github.com/lightmvc/lightmvc/pkg/config"
	"github.com/lightmvc/lightmvc/pkg/container"
	"github.com/lightmvc/lightmvc/pkg/database"
	"github.com/lightmvc/lightmvc/pkg/eventlog"
	"github.com/lightmvc/lightmvc/pkg/logger"
	"github.com/lightmvc/lightmvc/pkg/session"
)

func serve(app *internal.App, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, r)
	return rec
}

func TestApp_Routing(t *testing.T) {
	t.Parallel()

	app := newTestApp()

	tests := []struct {
		name     string
		method   string
		path     string
		wantBody string
		wantCode int
	}{
		{name: "string output", method: http.MethodGet, path: "/", wantCode: http.StatusOK, wantBody: "hello"},
		{name: "route param", method: http.MethodGet, path: "/posts/intro", wantCode: http.StatusOK, wantBody: "post:intro"},
		{name: "view status", method: http.MethodPost, path: "/posts", wantCode: http.StatusCreated, wantBody: "post:"},
		{name: "http error", method: http.MethodGet, path: "/fail", wantCode: http.StatusForbidden, wantBody: "members only"},
		{name: "method not allowed", method: http.MethodDelete, path: "/posts", wantCode: http.StatusMethodNotAllowed, wantBody: "Method Not Allowed"},
		{name: "not found", method: http.MethodGet, path: "/nowhere/at/all", wantCode: http.StatusNotFound, wantBody: "Not Found"},
		{name: "suggestion", method: http.MethodGet, path: "/hom", wantCode: http.StatusNotFound, wantBody: "Not Found. Did you mean /home?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := serve(app, httptest.NewRequest(tt.method, tt.path, nil))
			require.Equal(t, tt.wantCode, rec.Code)
			require.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestApp_RouteParams(t *testing.T) {
	t.Parallel()

	var match *internal.RouteMatch
	var controller any
	app := newTestApp(internal.WithListenerFunc(internal.PhaseFinish, func(e *internal.Event) (any, error) {
		match = e.Match()
		controller = e.Param(internal.ParamController)
		return nil, nil
	}, 0))

	_, err := app.Run(get("/posts/hello-world"))
	require.NoError(t, err)
	require.True(t, match.Found())
	require.Equal(t, "/posts/{slug}", match.Pattern)
	require.Equal(t, map[string]string{"slug": "hello-world"}, match.Params)
	require.IsType(t, &pages{}, controller)

	routes := app.Routes()
	require.Len(t, routes, 6)
	require.Equal(t, internal.RouteInfo{Controller: routes[0].Controller, Method: http.MethodGet, Pattern: "/"}, routes[0])

	ns := routes[0].Namespace()
	require.Equal(t, "pages", ns.FileName)
	require.Equal(t, "lightmvc", ns.DomainName)
	require.Empty(t, internal.RouteInfo{}.Namespace().FileName)
}

type admin struct{}

func (a *admin) Routes(r internal.Router) {
	r.Route("/admin", func(r internal.Router) {
		r.Use(func(next internal.Action) internal.Action {
			return func(e *internal.Event) (any, error) {
				out, err := next(e)
				if s, ok := out.(string); ok {
					out = "[" + s + "]"
				}
				return out, err
			}
		})
		r.GET("/", func(*internal.Event) (any, error) { return "dashboard", nil })
	})
	r.Mount("/files", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("file " + r.URL.Path))
	}))
}

func (a *admin) OnDispatch(e *internal.Event) (any, error) {
	if e.Request().Header.Get("X-Admin") == "" {
		return internal.Text(http.StatusUnauthorized, "login required"), nil
	}
	return nil, nil
}

func TestApp_ControllerDispatchListener(t *testing.T) {
	t.Parallel()

	app := internal.New(internal.WithHandlers(&admin{}))

	rec := serve(app, get("/admin/"))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := get("/admin/")
	req.Header.Set("X-Admin", "1")
	rec = serve(app, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[dashboard]", rec.Body.String())

	req = get("/files/css/site.css")
	req.Header.Set("X-Admin", "1")
	rec = serve(app, req)
	require.Equal(t, "file /css/site.css", rec.Body.String())
}

func TestApp_ErrorHandling(t *testing.T) {
	t.Parallel()

	boom := errors.New("database down")
	broken := internal.WithListenerFunc(internal.PhaseDispatch, func(*internal.Event) (any, error) {
		return nil, boom
	}, 10)

	rec := serve(newTestApp(broken), get("/"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Internal Server Error", rec.Body.String())

	var handled error
	custom := internal.WithErrorHandler(func(_ *http.Request, err error) *internal.Response {
		handled = err
		return internal.Text(http.StatusBadGateway, "try later")
	})
	rec = serve(newTestApp(broken, custom), get("/"))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.ErrorIs(t, handled, boom)

	_, err := newTestApp(broken).Run(get("/"))
	require.ErrorIs(t, err, boom)
}

func TestApp_PanicBecomes500(t *testing.T) {
	t.Parallel()

	finished := false
	app := newTestApp(
		internal.WithListenerFunc(internal.PhaseRender, func(*internal.Event) (any, error) {
			panic("render exploded")
		}, 10),
		internal.WithListenerFunc(internal.PhaseFinish, func(*internal.Event) (any, error) {
			finished = true
			return nil, nil
		}, 0),
	)

	rec := serve(app, get("/"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.True(t, finished)
}

func TestApp_CustomNotFoundAndMethodNotAllowed(t *testing.T) {
	t.Parallel()

	app := newTestApp(
		internal.WithNotFound(func(e *internal.Event) (any, error) {
			return internal.HTML(http.StatusNotFound, "<h1>lost: "+e.Request().URL.Path+"</h1>"), nil
		}),
		internal.WithMethodNotAllowed(func(*internal.Event) (any, error) {
			return internal.Text(http.StatusMethodNotAllowed, "nope"), nil
		}),
	)

	rec := serve(app, get("/missing"))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "<h1>lost: /missing</h1>", rec.Body.String())

	rec = serve(app, httptest.NewRequest(http.MethodPut, "/", nil))
	require.Equal(t, "nope", rec.Body.String())
}

func TestApp_Render(t *testing.T) {
	t.Parallel()

	app := newTestApp()
	ctx := context.Background()

	resp, err := app.Render(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	require.Empty(t, resp.BodyString())

	resp, err = app.Render(ctx, []byte("raw"))
	require.NoError(t, err)
	require.Equal(t, "raw", resp.BodyString())

	resp, err = app.Render(ctx, internal.View{"templatefile": "post", "statuscode": "404", "slug": "x"})
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode())
	require.Equal(t, "post:x", resp.BodyString())

	_, err = app.Render(ctx, internal.View{"statuscode": 200})
	require.ErrorIs(t, err, internal.ErrMissingTemplate)

	_, err = app.Render(ctx, 42)
	require.ErrorIs(t, err, internal.ErrUnsupportedOutput)

	_, err = app.Render(ctx, internal.View{"templatefile": "broken"})
	require.Error(t, err)

	_, err = internal.New().Render(ctx, internal.View{"templatefile": "home"})
	require.ErrorIs(t, err, internal.ErrNoViewEngine)
}

func TestApp_StaticFiles(t *testing.T) {
	t.Parallel()

	assets := fstest.MapFS{
		"public/app.css":        {Data: []byte("body{}")},
		"public/img/logo.svg":   {Data: []byte("<svg/>")},
		"public/img/index.html": {Data: []byte("listing")},
		"private/secret.txt":    {Data: []byte("secret")},
	}
	app := newTestApp(internal.WithStaticFiles("/static/", assets, "public"))

	rec := serve(app, get("/static/app.css"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "body{}", rec.Body.String())
	require.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))

	rec = serve(app, get("/static/img/"))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(app, get("/static/../private/secret.txt"))
	require.NotEqual(t, "secret", rec.Body.String())

	rec = serve(app, get("/"))
	require.Equal(t, "hello", rec.Body.String())
}

func TestApp_Initialize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg, err := config.FromMap(map[string]any{
		"env": config.EnvTest,
		"database": map[string]any{
			"main": map[string]any{"driver": "sqlite3", "dsn": filepath.Join(dir, "app.db")},
		},
		"session":    map[string]any{"enabled": true, "cookie_name": "sid"},
		"eventlog":   map[string]any{"enabled": true, "connection": "main", "whitelist": []any{"finish"}},
		"metrics":    map[string]any{"enabled": true},
		"health":     map[string]any{"enabled": true},
		"middleware": []any{map[string]any{"path": "/", "name": "stamp"}},
	})
	require.NoError(t, err)

	app := internal.New(
		internal.WithHandlers(&visits{}),
		internal.WithViewEngine(echoEngine),
		internal.WithCustomLogger(logger.Discard()),
		internal.WithMiddlewareFactory("stamp", func(*config.Config) (internal.Middleware, error) {
			return func(r *http.Request, next internal.Next) (*internal.Response, error) {
				internal.PendingHeaders(r.Context()).Set("X-Stamp", "yes")
				return next(r)
			}, nil
		}),
	)
	ctx := context.Background()
	require.NoError(t, app.Initialize(ctx, cfg))
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

	require.ErrorIs(t, app.Initialize(ctx, cfg), internal.ErrAlreadyInitialized)
	require.Same(t, cfg, app.Config())
	for _, name := range []string{"config", "logger", "view", "pipeline", "session", "eventlog", "metrics", "health", "main"} {
		require.True(t, app.Container().Has(name), name)
	}

	rec := serve(app, get("/visit"))
	require.Equal(t, "x", rec.Body.String())
	require.Equal(t, "yes", rec.Header().Get("X-Stamp"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "sid", cookies[0].Name)

	req := get("/visit")
	req.AddCookie(cookies[0])
	rec = serve(app, req)
	require.Equal(t, "xx", rec.Body.String())

	rec = serve(app, get("/health/live"))
	require.Equal(t, "OK", rec.Body.String())
	require.Empty(t, rec.Result().Cookies())
	rec = serve(app, get("/health/ready"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(app, get("/metrics"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `lightmvc_http_requests_total{method="GET",route="/visit",status="200"} 2`)

	conn, err := container.Resolve[*database.Conn](ctx, app.Container(), "main")
	require.NoError(t, err)
	entries, err := eventlog.NewSQLSink(conn).Recent(ctx, 50)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for _, e := range entries {
		require.Equal(t, "finish", e.Phase)
	}
	require.Contains(t, paths(entries), "/visit")
}

func paths(entries []eventlog.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}

type visits struct{}

func (v *visits) Routes(r internal.Router) {
	r.GET("/visit", func(e *internal.Event) (any, error) {
		sess := e.Cycle().Session()
		trail := session.ValueOr(sess, "trail", "") + "x"
		sess.SetValue("trail", trail)
		return trail, nil
	})
}

func TestApp_InitializeErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	require.ErrorIs(t, internal.New().Initialize(ctx, nil), config.ErrInvalidConfig)

	cfg, err := config.FromMap(map[string]any{
		"middleware": []any{map[string]any{"path": "/", "name": "missing"}},
	})
	require.NoError(t, err)
	app := internal.New(internal.WithCustomLogger(logger.Discard()), internal.WithViewEngine(echoEngine))
	require.ErrorIs(t, app.Initialize(ctx, cfg), internal.ErrUnknownMiddleware)
}

func TestApp_ShutdownClosesServices(t *testing.T) {
	t.Parallel()

	var closed []string
	service := func(name string) container.Factory {
		return func(context.Context, *container.Container) (any, error) {
			return closerFunc(func() error {
				closed = append(closed, name)
				return nil
			}), nil
		}
	}
	app := internal.New(
		internal.WithCustomLogger(logger.Discard()),
		internal.WithViewEngine(echoEngine),
		internal.WithService("cache", service("cache")),
		internal.WithService("mailer", service("mailer")),
		internal.WithService("unused", service("unused")),
	)
	cfg, err := config.FromMap(nil)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, app.Initialize(ctx, cfg))

	for _, name := range []string{"cache", "mailer"} {
		_, err := app.Container().Get(ctx, name)
		require.NoError(t, err)
	}

	require.NoError(t, app.Shutdown(ctx))
	require.Equal(t, []string{"mailer", "cache"}, closed)

	require.NoError(t, app.Shutdown(ctx))
	require.Len(t, closed, 2)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
