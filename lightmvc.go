package lightmvc

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/lightmvc/lightmvc/internal"
	"github.com/lightmvc/lightmvc/middlewares"
	"github.com/lightmvc/lightmvc/pkg/config"
	"github.com/lightmvc/lightmvc/pkg/container"
	"github.com/lightmvc/lightmvc/pkg/health"
	"github.com/lightmvc/lightmvc/pkg/logger"
	"github.com/lightmvc/lightmvc/pkg/metrics"
	"github.com/lightmvc/lightmvc/pkg/session"
	"github.com/lightmvc/lightmvc/pkg/view"
)

// Type aliases - public API
type (
	// App is the front controller driving requests through the lifecycle.
	App = internal.App

	// Event carries one request through the lifecycle phases.
	Event = internal.Event

	// Cycle is the per-request state behind an Event.
	Cycle = internal.Cycle

	// Phase names a lifecycle phase.
	Phase = internal.Phase

	// EventManager dispatches phase events to prioritized listeners.
	EventManager = internal.EventManager

	// Listener handles a phase event.
	Listener = internal.Listener

	// ListenerFunc adapts a function to Listener.
	ListenerFunc = internal.ListenerFunc

	// Subscription is returned by Attach and detaches a listener.
	Subscription = internal.Subscription

	// Result collects listener return values of one trigger.
	Result = internal.Result

	// Handler declares routes on a router. Controllers implement it.
	Handler = internal.Handler

	// Router is the interface controllers use to declare routes.
	Router = internal.Router

	// Action is a controller action.
	Action = internal.Action

	// ActionMiddleware wraps an Action.
	ActionMiddleware = internal.ActionMiddleware

	// RouteMatch is the result of the route phase.
	RouteMatch = internal.RouteMatch

	// RouteInfo describes a registered route.
	RouteInfo = internal.RouteInfo

	// Middleware is a bootstrap middleware.
	Middleware = internal.Middleware

	// Next delegates to the next middleware in the pipe.
	Next = internal.Next

	// MiddlewareFactory builds a named middleware from configuration.
	MiddlewareFactory = internal.MiddlewareFactory

	// Response is a buffered HTTP response.
	Response = internal.Response

	// View is controller output rendered by the view engine.
	View = internal.View

	// HTTPError is an error with an HTTP status.
	HTTPError = internal.HTTPError

	// ErrorHandler turns lifecycle errors into responses.
	ErrorHandler = internal.ErrorHandler

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// Config is the application configuration.
	Config = config.Config

	// ContextExtractor extracts a slog attribute from context.
	// Used with WithLogger to add request-scoped values to logs.
	ContextExtractor = logger.ContextExtractor

	// Session represents a user session.
	Session = session.Session
)

// Lifecycle phases, in the order they run.
const (
	PhaseBootstrap = internal.PhaseBootstrap
	PhaseRoute     = internal.PhaseRoute
	PhaseDispatch  = internal.PhaseDispatch
	PhaseRender    = internal.PhaseRender
	PhaseFinish    = internal.PhaseFinish
)

// Event parameter keys.
const (
	ParamRoute      = internal.ParamRoute
	ParamController = internal.ParamController
	ParamError      = internal.ParamError
)

// DefaultPriority is the priority of the built-in router, dispatcher and renderer.
const DefaultPriority = internal.DefaultPriority

// Errors
var (
	ErrNoResponse        = internal.ErrNoResponse
	ErrNotAListener      = internal.ErrNotAListener
	ErrEmptyPipeline     = internal.ErrEmptyPipeline
	ErrUnknownMiddleware = internal.ErrUnknownMiddleware
	ErrNoApps            = internal.ErrNoApps
)

// DefaultMiddleware lists the middleware factories New registers.
// Each can be placed in the pipeline from the "middleware" config section.
func DefaultMiddleware() map[string]MiddlewareFactory {
	return map[string]MiddlewareFactory{
		"requestid": func(*config.Config) (Middleware, error) {
			return middlewares.RequestID(), nil
		},
		"recover": func(*config.Config) (Middleware, error) {
			return middlewares.Recover(), nil
		},
		"cors": func(cfg *config.Config) (Middleware, error) {
			return middlewares.CORS(cfg.CORS), nil
		},
		"ratelimit": func(cfg *config.Config) (Middleware, error) {
			return middlewares.RateLimit(cfg.RateLimit), nil
		},
	}
}

// New creates a new application with the given options.
// The middleware from DefaultMiddleware is registered first, so options
// may replace any of them by name.
//
// Example:
//
//	app := lightmvc.New(
//	    lightmvc.WithLogger("web", lightmvc.RequestIDExtractor()),
//	    lightmvc.WithHandlers(&controllers.Pages{}),
//	)
//	cfg, err := lightmvc.Boot(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Initialize(ctx, cfg); err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Serve(); err != nil {
//	    log.Fatal(err)
//	}
func New(opts ...Option) *App {
	base := make([]Option, 0, len(opts)+4)
	for name, f := range DefaultMiddleware() {
		base = append(base, internal.WithMiddlewareFactory(name, f))
	}
	return internal.New(append(base, opts...)...)
}

// Boot loads configuration from baseDir.
// See config.Boot for the files and environment variables consulted.
func Boot(baseDir string, opts ...config.Option) (*Config, error) {
	return config.Boot(baseDir, opts...)
}

// Run starts a server for several applications routed by host and
// blocks until shutdown.
//
// Example:
//
//	err := lightmvc.Run(
//	    lightmvc.Domain("*.acme.com", tenantApp),
//	    lightmvc.Fallback(landingApp),
//	    lightmvc.Address(":8080"),
//	)
func Run(opts ...RunOption) error {
	return internal.Run(opts...)
}

// WithHandlers registers controllers.
func WithHandlers(h ...Handler) Option {
	return internal.WithHandlers(h...)
}

// WithListener attaches a listener to a phase.
func WithListener(phase Phase, l Listener, priority int) Option {
	return internal.WithListener(phase, l, priority)
}

// WithListenerFunc attaches a function listener to a phase.
func WithListenerFunc(phase Phase, fn func(e *Event) (any, error), priority int) Option {
	return internal.WithListenerFunc(phase, fn, priority)
}

// WithLifecycleListener attaches every phase method obj implements.
func WithLifecycleListener(obj any, priority int) Option {
	return internal.WithLifecycleListener(obj, priority)
}

// WithMiddleware adds bootstrap middleware.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithPathMiddleware adds middleware that only runs under prefix.
func WithPathMiddleware(prefix string, mw Middleware) Option {
	return internal.WithPathMiddleware(prefix, mw)
}

// WithMiddlewareFactory registers a middleware for the "middleware" config section.
func WithMiddlewareFactory(name string, f MiddlewareFactory) Option {
	return internal.WithMiddlewareFactory(name, f)
}

// WithStaticFiles serves files from fsys under pattern.
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return internal.WithStaticFiles(pattern, fsys, subDir)
}

// WithLogger sets the logger component and context extractors.
func WithLogger(component string, extractors ...ContextExtractor) Option {
	return internal.WithLogger(component, extractors...)
}

// WithCustomLogger replaces the configured logger.
func WithCustomLogger(l *slog.Logger) Option {
	return internal.WithCustomLogger(l)
}

// WithErrorHandler sets the error handler.
func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

// WithNotFound sets the action dispatched when no route matches.
func WithNotFound(a Action) Option {
	return internal.WithNotFound(a)
}

// WithMethodNotAllowed sets the action dispatched when the path matches
// but the method does not.
func WithMethodNotAllowed(a Action) Option {
	return internal.WithMethodNotAllowed(a)
}

// WithViewEngine sets the view engine, bypassing the templates config.
func WithViewEngine(e view.Engine) Option {
	return internal.WithViewEngine(e)
}

// WithViewOptions passes options to the configured view engine.
func WithViewOptions(opts ...view.Option) Option {
	return internal.WithViewOptions(opts...)
}

// WithTemplatesFS sets the filesystem templates are loaded from.
func WithTemplatesFS(fsys fs.FS) Option {
	return internal.WithTemplatesFS(fsys)
}

// WithSessionManager enables sessions with a prepared manager.
func WithSessionManager(m *session.Manager) Option {
	return internal.WithSessionManager(m)
}

// WithMetrics enables request metrics with a prepared collector.
func WithMetrics(c *metrics.Collector) Option {
	return internal.WithMetrics(c)
}

// WithHealthCheck adds a readiness check.
func WithHealthCheck(name string, fn health.CheckFunc) Option {
	return internal.WithHealthCheck(name, fn)
}

// WithService registers a lazily built shared service.
func WithService(name string, f container.Factory) Option {
	return internal.WithService(name, f)
}

// Address sets the listen address.
func Address(addr string) RunOption {
	return internal.Address(addr)
}

// Logger sets the server logger.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout bounds graceful shutdown.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// ShutdownHook runs fn during shutdown.
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// Domain routes requests for pattern to app.
// Patterns: "api.example.com" (exact) or "*.example.com" (wildcard)
func Domain(pattern string, app *App) RunOption {
	return internal.Domain(pattern, app)
}

// Fallback handles hosts no domain matches.
func Fallback(app *App) RunOption {
	return internal.Fallback(app)
}

// WithContext sets the base context for signal handling.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// Path scopes mw to requests under prefix.
func Path(prefix string, mw Middleware) Middleware {
	return internal.Path(prefix, mw)
}

// FromHandler makes h a terminal middleware.
func FromHandler(h http.Handler) Middleware {
	return internal.FromHandler(h)
}

// FromHTTP adapts net/http middleware.
func FromHTTP(mw func(http.Handler) http.Handler) Middleware {
	return internal.FromHTTP(mw)
}

// PendingHeaders returns the headers merged into the final response.
func PendingHeaders(ctx context.Context) http.Header {
	return internal.PendingHeaders(ctx)
}

// PhaseExtractor logs the lifecycle phase of the request a record belongs to.
func PhaseExtractor() ContextExtractor {
	return internal.PhaseExtractor()
}

// NewResponse creates an empty response with status.
func NewResponse(status int) *Response {
	return internal.NewResponse(status)
}

// Text creates a plain text response.
func Text(status int, body string) *Response {
	return internal.Text(status, body)
}

// HTML creates an HTML response.
func HTML(status int, body string) *Response {
	return internal.HTML(status, body)
}

// Redirect creates a redirect response.
func Redirect(status int, url string) *Response {
	return internal.Redirect(status, url)
}

// IsResponse reports whether v is a *Response.
func IsResponse(v any) bool {
	return internal.IsResponse(v)
}

// NewHTTPError creates an error reported with code.
func NewHTTPError(code int, message string, cause ...error) *HTTPError {
	return internal.NewHTTPError(code, message, cause...)
}

// ErrNotFound creates a 404 error.
func ErrNotFound(message string, cause ...error) *HTTPError {
	return internal.ErrNotFound(message, cause...)
}

// ErrBadRequest creates a 400 error.
func ErrBadRequest(message string, cause ...error) *HTTPError {
	return internal.ErrBadRequest(message, cause...)
}

// ErrUnauthorized creates a 401 error.
func ErrUnauthorized(message string, cause ...error) *HTTPError {
	return internal.ErrUnauthorized(message, cause...)
}

// ErrForbidden creates a 403 error.
func ErrForbidden(message string, cause ...error) *HTTPError {
	return internal.ErrForbidden(message, cause...)
}

// AsHTTPError extracts an *HTTPError from err.
func AsHTTPError(err error) (*HTTPError, bool) {
	return internal.AsHTTPError(err)
}

// RequestIDExtractor returns a ContextExtractor for use with WithLogger.
// Automatically adds "request_id" to all log entries.
func RequestIDExtractor() ContextExtractor {
	return middlewares.RequestIDExtractor()
}

// SessionValueOr retrieves a typed session value or returns defaultVal.
func SessionValueOr[T any](sess *Session, key string, defaultVal T) T {
	return session.ValueOr(sess, key, defaultVal)
}
