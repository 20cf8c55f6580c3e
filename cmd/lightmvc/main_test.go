package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lightmvc/lightmvc/pkg/config"
)

func execute(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

// siteDir writes a config file pointing at a sqlite database in a temp dir.
func siteDir(t *testing.T, eventLog bool) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "config"), 0o755))
	cfg := map[string]any{
		"env":     config.EnvTest,
		"address": "127.0.0.1:0",
		"log":     map[string]any{"level": "error", "format": "text"},
		"database": map[string]any{
			"main": map[string]any{"driver": "sqlite3", "dsn": filepath.Join(dir, "app.db")},
		},
		"eventlog": map[string]any{"enabled": eventLog, "connection": "main"},
	}
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "config.yaml"), data, 0o644))
	return dir
}

func TestRoutesCmd(t *testing.T) {
	t.Parallel()

	out, err := execute(t, context.Background(), "routes")
	require.NoError(t, err)
	require.Contains(t, out, "METHOD")
	require.Contains(t, out, "/posts/{slug}")
	require.Regexp(t, `GET\s+/visits\s+pages`, out)
	require.Regexp(t, `GET\s+/posts/\{slug\}\s+blog`, out)
	require.NotContains(t, out, "cmd/")
}

func TestConfigCmd(t *testing.T) {
	t.Parallel()

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, context.Background(), "config", "--dir", "testdata")
		require.NoError(t, err)

		var settings map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(out), &settings))
		require.Equal(t, "test", settings["env"])
		require.Contains(t, out, "demo_session")
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, context.Background(), "config", "--dir", "testdata", "-f", "json")
		require.NoError(t, err)

		var settings map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &settings))
		require.Equal(t, "127.0.0.1:0", settings["address"])
	})

	t.Run("toml", func(t *testing.T) {
		t.Parallel()

		out, err := execute(t, context.Background(), "config", "--dir", "testdata", "-f", "toml")
		require.NoError(t, err)
		require.Contains(t, out, "[session]")
		require.Contains(t, out, "demo_session")
	})

	t.Run("unsupported format", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, context.Background(), "config", "--dir", "testdata", "-f", "ini")
		require.ErrorContains(t, err, "unsupported format")
	})

	t.Run("missing config", func(t *testing.T) {
		t.Parallel()

		_, err := execute(t, context.Background(), "config", "--dir", t.TempDir())
		require.ErrorIs(t, err, config.ErrConfigNotFound)
	})
}

func TestMigrateCmd(t *testing.T) {
	t.Parallel()

	dir := siteDir(t, true)

	out, err := execute(t, context.Background(), "migrate", "--dir", dir)
	require.NoError(t, err)
	require.Equal(t, "main: event log schema at version 1\n", out)

	// Applying again is a no-op.
	out, err = execute(t, context.Background(), "migrate", "--dir", dir, "--conn", "main")
	require.NoError(t, err)
	require.Contains(t, out, "version 1")

	_, err = execute(t, context.Background(), "migrate", "--dir", dir, "--conn", "replica")
	require.ErrorIs(t, err, errUnknownConnection)
}

func TestServeCmd_StopsWithContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := execute(t, ctx, "serve", "--dir", siteDir(t, false))
	require.NoError(t, err)
}

func TestDemoApp(t *testing.T) {
	t.Parallel()

	cfg, err := config.FromMap(map[string]any{
		"env":     config.EnvTest,
		"log":     map[string]any{"level": "error", "format": "text"},
		"session": map[string]any{"enabled": true, "cookie_name": "sid"},
	})
	require.NoError(t, err)

	app := newDemoApp(nil)
	require.NoError(t, app.Initialize(context.Background(), cfg))
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

	get := func(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, req)
		return rec
	}

	home := get("/")
	require.Equal(t, http.StatusOK, home.Code)
	require.Contains(t, home.Body.String(), `<a href="/posts/hello">Hello, lightmvc</a>`)
	require.Empty(t, home.Result().Cookies())

	post := get("/posts/listeners")
	require.Equal(t, http.StatusOK, post.Code)
	require.Contains(t, post.Body.String(), "<h1>Listeners</h1>")

	require.Equal(t, http.StatusNotFound, get("/posts/missing").Code)

	first := get("/visits")
	require.Contains(t, first.Body.String(), "visited this page 1 time(s)")
	cookies := first.Result().Cookies()
	require.NotEmpty(t, cookies)

	second := get("/visits", cookies...)
	require.Contains(t, second.Body.String(), "visited this page 2 time(s)")
}
