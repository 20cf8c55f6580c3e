package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/cors"
	"github.com/stretchr/testify/require"

	"github.com/lightmvc/lightmvc/middlewares"
	"github.com/lightmvc/lightmvc/pkg/config"
)

func TestCORS(t *testing.T) {
	t.Parallel()

	app := newApp(middlewares.CORS(config.CORSConfig{
		AllowedOrigins:   []string{"https://app.example.com"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		ExposedHeaders:   []string{"X-Total"},
		AllowCredentials: true,
		MaxAge:           600,
	}))

	t.Run("allowed origin", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := serve(app, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		require.Equal(t, "X-Total", rec.Header().Get("Access-Control-Expose-Headers"))
	})

	t.Run("unknown origin", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := serve(app, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := serve(app, req)
		require.Less(t, rec.Code, 300)
		require.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
		require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
		require.NotContains(t, rec.Body.String(), "id=")
	})
}

func TestCORSWithOptions(t *testing.T) {
	t.Parallel()

	app := newApp(middlewares.CORSWithOptions(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool { return origin == "https://dyn.example.com" },
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://dyn.example.com")
	rec := serve(app, req)
	require.Equal(t, "https://dyn.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
