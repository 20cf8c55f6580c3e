package internal

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lightmvc/lightmvc/pkg/container"
	"github.com/lightmvc/lightmvc/pkg/health"
	"github.com/lightmvc/lightmvc/pkg/logger"
	"github.com/lightmvc/lightmvc/pkg/metrics"
	"github.com/lightmvc/lightmvc/pkg/session"
	"github.com/lightmvc/lightmvc/pkg/view"
)

// Option configures the application.
type Option func(*App)

// WithHandlers registers controllers that declare routes.
// Each handler's Routes method is called once by New.
func WithHandlers(h ...Handler) Option {
	return func(a *App) {
		a.handlers = append(a.handlers, h...)
	}
}

// WithListener attaches l to phase at the given priority.
// Higher priorities run first; equal priorities run in attach order.
func WithListener(phase Phase, l Listener, priority int) Option {
	return func(a *App) {
		a.events.Attach(phase, l, priority)
	}
}

// WithListenerFunc is WithListener for plain functions.
//
// Example:
//
//	lightmvc.WithListenerFunc(lightmvc.PhaseFinish, func(e *lightmvc.Event) (any, error) {
//	    audit.Record(e.Request())
//	    return nil, nil
//	}, -5)
func WithListenerFunc(phase Phase, fn func(e *Event) (any, error), priority int) Option {
	return func(a *App) {
		a.events.AttachFunc(phase, fn, priority)
	}
}

// WithLifecycleListener attaches every OnBootstrap, OnRoute, OnDispatch,
// OnRender and OnFinish method obj has. It panics if obj has none.
func WithLifecycleListener(obj any, priority int) Option {
	return func(a *App) {
		if _, err := a.events.AttachListener(obj, priority); err != nil {
			panic(fmt.Sprintf("lifecycle listener %T: %v", obj, err))
		}
	}
}

// WithMiddleware appends middleware to the bootstrap pipe.
// Middleware run in the order provided, after health and metrics endpoints.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middleware = append(a.middleware, mw...)
	}
}

// WithPathMiddleware appends middleware that only sees requests at or below prefix.
func WithPathMiddleware(prefix string, mw Middleware) Option {
	return func(a *App) {
		a.middleware = append(a.middleware, Path(prefix, mw))
	}
}

// WithMiddlewareFactory registers a middleware that the "middleware"
// config section can reference by name.
//
// Example:
//
//	lightmvc.WithMiddlewareFactory("maintenance", func(cfg *config.Config) (lightmvc.Middleware, error) {
//	    return Maintenance(cfg.Get("app.maintenance") == true), nil
//	})
func WithMiddlewareFactory(name string, f MiddlewareFactory) Option {
	return func(a *App) {
		a.factories[name] = f
	}
}

// WithStaticFiles serves files from fsys/subDir below pattern during bootstrap.
// Directory listings are disabled. Files are served with default cache headers.
//
// Example:
//
//	//go:embed public
//	var assets embed.FS
//
//	lightmvc.New(
//	    lightmvc.WithStaticFiles("/static/", assets, "public"),
//	)
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return func(a *App) {
		subFS, err := fs.Sub(fsys, subDir)
		if err != nil {
			panic(err)
		}

		fileServer := http.StripPrefix(strings.TrimRight(pattern, "/"), http.FileServerFS(subFS))
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}

			w.Header().Set("Cache-Control", "public, max-age=3600")
			w.Header().Set("X-Content-Type-Options", "nosniff")

			fileServer.ServeHTTP(w, r)
		})

		a.middleware = append(a.middleware, Path(pattern, FromHandler(handler)))
	}
}

// WithLogger sets the component name and context extractors used when
// Initialize builds the logger from the "log" config section.
//
// Example:
//
//	lightmvc.New(
//	    lightmvc.WithLogger("web", lightmvc.RequestIDExtractor()),
//	)
func WithLogger(component string, extractors ...logger.ContextExtractor) Option {
	return func(a *App) {
		a.component = component
		a.extractors = append(a.extractors, extractors...)
	}
}

// WithCustomLogger sets a fully custom logger.
// Initialize keeps it instead of building one from config.
func WithCustomLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
			a.customLogger = true
		}
	}
}

// WithErrorHandler sets the handler that turns lifecycle errors into responses.
//
// Example:
//
//	lightmvc.WithErrorHandler(func(r *http.Request, err error) *lightmvc.Response {
//	    if errors.Is(err, sql.ErrNoRows) {
//	        return lightmvc.Text(http.StatusNotFound, "not found")
//	    }
//	    return nil
//	})
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		a.errorHandler = h
	}
}

// WithNotFound replaces the action dispatched when no route matches.
func WithNotFound(act Action) Option {
	return func(a *App) {
		if act != nil {
			a.notFound = act
		}
	}
}

// WithMethodNotAllowed replaces the action dispatched when a route
// matches the path but not the method.
func WithMethodNotAllowed(act Action) Option {
	return func(a *App) {
		if act != nil {
			a.methodNotAllowed = act
		}
	}
}

// WithViewEngine sets the view engine, skipping the one Initialize would
// build from the "templates" config section.
func WithViewEngine(e view.Engine) Option {
	return func(a *App) {
		a.view = e
	}
}

// WithViewOptions passes options to the engine built by Initialize.
func WithViewOptions(opts ...view.Option) Option {
	return func(a *App) {
		a.viewOptions = append(a.viewOptions, opts...)
	}
}

// WithTemplatesFS reads templates from fsys instead of templates.dir.
func WithTemplatesFS(fsys fs.FS) Option {
	return func(a *App) {
		a.templates = fsys
	}
}

// WithSessionManager enables sessions with a ready manager.
// The session is loaded during bootstrap and saved during finish.
func WithSessionManager(m *session.Manager) Option {
	return func(a *App) {
		a.sessions = m
	}
}

// WithMetrics records phase and request metrics into c.
func WithMetrics(c *metrics.Collector) Option {
	return func(a *App) {
		a.metrics = c
	}
}

// WithHealthCheck adds a readiness check.
//
// Example:
//
//	lightmvc.WithHealthCheck("redis", redis.Healthcheck(client))
func WithHealthCheck(name string, fn health.CheckFunc) Option {
	return func(a *App) {
		a.healthChecks[name] = fn
	}
}

// WithService registers a lazily built service in the container.
func WithService(name string, f container.Factory) Option {
	return func(a *App) {
		a.container.Set(name, f)
	}
}
