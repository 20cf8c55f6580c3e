// Package middlewares provides bootstrap middleware for lightmvc applications.
//
// Every middleware here has the internal Middleware signature: it runs in
// the bootstrap phase, before routing, and may answer the request itself
// or delegate to the next one.
//
// # Request ID
//
// RequestID assigns an ID to each request. An ID sent by a proxy in
// X-Request-ID or X-Correlation-ID is kept; otherwise a UUID is generated.
// The ID is echoed in the X-Request-ID response header.
//
//	app := lightmvc.New(
//	    lightmvc.WithLogger("api", middlewares.RequestIDExtractor()),
//	    lightmvc.WithMiddleware(middlewares.RequestID()),
//	)
//
// # Recover
//
// Recover turns a panic in later middleware into a *PanicError, so the
// app's ErrorHandler sees it like any other error:
//
//	lightmvc.WithErrorHandler(func(r *http.Request, err error) *lightmvc.Response {
//	    if pe, ok := middlewares.AsPanicError(err); ok {
//	        slog.ErrorContext(r.Context(), "panic", "value", pe.Value)
//	    }
//	    return lightmvc.Text(http.StatusInternalServerError, "Internal Server Error")
//	})
//
// Panics in controllers are recovered by the App itself.
//
// # CORS
//
// CORS wraps go-chi/cors. Preflight requests are answered in bootstrap and
// never reach the router.
//
//	lightmvc.WithMiddleware(middlewares.CORS(config.CORSConfig{
//	    AllowedOrigins: []string{"https://app.example.com"},
//	}))
//
// # Rate limiting
//
// RateLimit answers 429 with a Retry-After header once the token bucket is
// empty, either for the whole app or per client IP.
//
//	lightmvc.WithMiddleware(middlewares.RateLimit(config.RateLimitConfig{
//	    RPS: 10, Burst: 20, PerClient: true,
//	}))
//
// All four are also available by name in the "middleware" configuration
// list when the app is created with lightmvc.New.
package middlewares
