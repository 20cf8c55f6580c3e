package middlewares_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/lightmvc/lightmvc/internal"
	"github.com/lightmvc/lightmvc/middlewares"
)

// newApp answers every request that passes the middleware with the
// request ID it saw, so tests can follow what reached the controller.
func newApp(mw ...internal.Middleware) *internal.App {
	return internal.New(
		internal.WithMiddleware(mw...),
		internal.WithNotFound(func(e *internal.Event) (any, error) {
			return internal.Text(http.StatusOK, "id="+middlewares.GetRequestID(e.Context())), nil
		}),
	)
}

func serve(app *internal.App, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, r)
	return rec
}
