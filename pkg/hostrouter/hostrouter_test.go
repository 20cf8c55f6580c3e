package hostrouter_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lightmvc/lightmvc/pkg/hostrouter"
)

func named(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, name)
	})
}

func TestRouter_ServeHTTP(t *testing.T) {
	t.Parallel()

	r := hostrouter.New(named("fallback"))
	r.Handle("api.example.com", named("api"))
	r.Handle("*.example.com", named("tenant"))
	r.Handle("*.eu.example.com", named("eu"))
	r.Handle("", named("ignored"))

	tests := []struct {
		host string
		want string
	}{
		{host: "api.example.com", want: "api"},
		{host: "API.Example.COM:8443", want: "api"},
		{host: "acme.example.com", want: "tenant"},
		{host: "a.b.example.com", want: "tenant"},
		{host: "shop.eu.example.com", want: "eu"},
		{host: "example.com", want: "fallback"},
		{host: "other.org", want: "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = tt.host
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestRouter_DefaultFallbackAndReplace(t *testing.T) {
	t.Parallel()

	r := hostrouter.New(nil)
	r.Handle("*.example.com", named("v1"))
	r.Handle("*.example.com", named("v2"))

	h, ok := r.Lookup("x.example.com")
	require.True(t, ok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "v2", rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "nowhere.test"
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHostAndSubdomain(t *testing.T) {
	t.Parallel()

	require.Equal(t, "example.com", hostrouter.Host("Example.COM:8080"))
	require.Equal(t, "[::1]", hostrouter.Host("[::1]:8080"))
	require.Equal(t, "localhost", hostrouter.Host("localhost"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "Bar.Foo.example.com:80"
	require.Equal(t, "bar.foo", hostrouter.Subdomain(req, "example.com"))

	req.Host = "example.com"
	require.Empty(t, hostrouter.Subdomain(req, "example.com"))

	req.Host = "other.com"
	require.Empty(t, hostrouter.Subdomain(req, "example.com"))
}
