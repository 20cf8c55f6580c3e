package internal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lightmvc/lightmvc/pkg/cache"
	"github.com/lightmvc/lightmvc/pkg/config"
	"github.com/lightmvc/lightmvc/pkg/container"
	"github.com/lightmvc/lightmvc/pkg/database"
	"github.com/lightmvc/lightmvc/pkg/eventlog"
	"github.com/lightmvc/lightmvc/pkg/health"
	"github.com/lightmvc/lightmvc/pkg/logger"
	"github.com/lightmvc/lightmvc/pkg/metrics"
	"github.com/lightmvc/lightmvc/pkg/redis"
	"github.com/lightmvc/lightmvc/pkg/session"
	"github.com/lightmvc/lightmvc/pkg/view"
)

// Listener priorities of the built-in listeners. Higher runs first.
const (
	PrioritySessionLoad = 100
	PriorityPipeline    = 3
	PriorityRouter      = DefaultPriority
	PriorityDispatcher  = DefaultPriority
	PriorityRenderer    = DefaultPriority
	PrioritySessionSave = 10
	PriorityMetrics     = -10
	// PriorityEventLog runs the event logger ahead of every other
	// listener, so its nil value never becomes a phase's last value.
	PriorityEventLog = 1000
)

// Container names of the services registered by Initialize.
const (
	ServiceConfig   = "config"
	ServiceLogger   = "logger"
	ServiceView     = "view"
	ServicePipeline = "pipeline"
	ServiceSession  = "session"
	ServiceEventLog = "eventlog"
	ServiceMetrics  = "metrics"
	ServiceHealth   = "health"
)

// ErrorHandler converts a lifecycle error into the response sent to the
// client. Returning nil falls back to the default error response.
type ErrorHandler func(r *http.Request, err error) *Response

// MiddlewareFactory builds a named middleware from the configuration.
// Factories are referenced by name from the middleware config section.
type MiddlewareFactory func(cfg *config.Config) (Middleware, error)

// PhaseObserver is told how long each lifecycle phase took.
type PhaseObserver interface {
	ObservePhase(phase string, d time.Duration)
}

// App is a front controller. It owns the event manager that drives every
// request through the lifecycle, the route table, the service container
// and the bootstrap middleware pipe.
type App struct {
	cfg              *config.Config
	container        *container.Container
	events           *EventManager
	routes           *routeTable
	view             view.Engine
	pipe             atomic.Pointer[Pipe]
	sessions         *session.Manager
	eventLog         *eventlog.Logger
	metrics          *metrics.Collector
	health           *health.Checker
	observer         PhaseObserver
	logger           *slog.Logger
	errorHandler     ErrorHandler
	notFound         Action
	methodNotAllowed Action
	templates        fs.FS
	factories        map[string]MiddlewareFactory
	healthChecks     map[string]health.CheckFunc
	component        string
	extractors       []logger.ContextExtractor
	handlers         []Handler
	middleware       []Middleware
	viewOptions      []view.Option
	shutdownHooks    []func(context.Context) error
	mu               sync.Mutex
	customLogger     bool
	initialized      bool
}

// New creates an application. The router, dispatcher, renderer and
// pipeline listeners are attached immediately, so Run works on an app
// that was never initialized.
//
// Example:
//
//	app := lightmvc.New(
//	    lightmvc.WithHandlers(&controllers.Pages{}),
//	    lightmvc.WithListenerFunc(lightmvc.PhaseFinish, audit, -5),
//	)
func New(opts ...Option) *App {
	a := &App{
		container:    container.New(),
		events:       NewEventManager(),
		logger:       logger.Discard(),
		factories:    make(map[string]MiddlewareFactory),
		healthChecks: make(map[string]health.CheckFunc),
	}
	a.notFound = a.defaultNotFound
	a.methodNotAllowed = defaultMethodNotAllowed

	for _, opt := range opts {
		opt(a)
	}

	a.routes = newRouteTable(a.handlers)
	a.pipe.Store(NewPipe(a.middleware...))

	a.events.AttachFunc(PhaseBootstrap, a.runPipeline, PriorityPipeline)
	a.events.AttachFunc(PhaseRoute, a.route, PriorityRouter)
	a.events.AttachFunc(PhaseDispatch, a.dispatch, PriorityDispatcher)
	a.events.AttachFunc(PhaseRender, a.render, PriorityRenderer)
	if a.sessions != nil {
		a.attachSessions()
	}
	if a.metrics != nil {
		a.attachMetrics()
	}
	return a
}

// Initialize wires the services described by cfg: logger, database
// connections, view engine, sessions, event log, metrics, health
// endpoints and configured middleware. It may be called once, and must
// return before the App serves requests.
func (a *App) Initialize(ctx context.Context, cfg *config.Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialized {
		return ErrAlreadyInitialized
	}
	if cfg == nil {
		return fmt.Errorf("%w: nil config", config.ErrInvalidConfig)
	}
	a.cfg = cfg

	if err := a.initLogger(); err != nil {
		return err
	}
	a.container.Value(ServiceConfig, cfg)
	a.container.Value(ServiceLogger, a.logger)

	a.health = health.NewChecker(health.WithTimeout(cfg.Health.Timeout), health.WithLogger(a.logger))
	for name, fn := range a.healthChecks {
		a.health.Register(name, fn)
	}
	a.container.Value(ServiceHealth, a.health)

	a.initDatabases()

	if err := a.initView(); err != nil {
		return err
	}
	if err := a.initSessions(ctx); err != nil {
		return err
	}
	if err := a.initEventLog(ctx); err != nil {
		return err
	}
	a.initMetrics()

	if err := a.initPipeline(); err != nil {
		return err
	}

	a.shutdownHooks = append(a.shutdownHooks, a.container.Close)
	a.initialized = true
	a.logger.InfoContext(ctx, "application initialized",
		slog.String("env", cfg.Env),
		slog.Int("routes", len(a.routes.routes)),
		slog.Int("middleware", a.pipe.Load().Len()),
	)
	return nil
}

func (a *App) initLogger() error {
	if a.customLogger {
		return nil
	}
	extractors := append(slices.Clone(a.extractors), PhaseExtractor())
	l, closer, err := logger.New(a.cfg.Log, a.cfg.Sentry, extractors...)
	if err != nil {
		return err
	}
	if a.component != "" {
		l = l.With(slog.String("component", a.component))
	}
	a.logger = l
	a.shutdownHooks = append(a.shutdownHooks, func(context.Context) error { return closer.Close() })
	return nil
}

func (a *App) initDatabases() {
	for name, connCfg := range a.cfg.Database {
		a.container.Set(name, func(ctx context.Context, _ *container.Container) (any, error) {
			return database.Open(ctx, name, connCfg)
		})
		a.health.Register(name, func(ctx context.Context) error {
			conn, err := container.Resolve[*database.Conn](ctx, a.container, name)
			if err != nil {
				return err
			}
			return conn.Healthcheck(ctx)
		})
	}
}

func (a *App) initView() error {
	if a.view == nil {
		fsys := a.templates
		if fsys == nil {
			dir := a.cfg.Templates.Dir
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(a.cfg.BaseDir, dir)
			}
			fsys = os.DirFS(dir)
		}
		engine, err := view.New(a.cfg.Templates, a.cfg.Env, fsys, a.viewOptions...)
		if err != nil {
			return err
		}
		a.view = engine
	}
	a.container.Value(ServiceView, a.view)
	return nil
}

func (a *App) initSessions(ctx context.Context) error {
	if a.sessions == nil && a.cfg.Session.Enabled {
		sc := a.cfg.Session
		ttl := time.Duration(sc.MaxAge) * time.Second

		var driver cache.Cache[session.Session]
		switch sc.Driver {
		case "redis":
			client, err := redis.Open(ctx, sc.RedisURL)
			if err != nil {
				return err
			}
			a.health.Register("redis", redis.Healthcheck(client))
			a.shutdownHooks = append(a.shutdownHooks, func(context.Context) error { return client.Close() })
			driver = cache.NewRedis[session.Session](client, sc.Prefix, ttl)
		case "memory", "":
			driver = cache.NewMemory[session.Session](cache.WithDefaultTTL(ttl))
		default:
			return fmt.Errorf("%w: %q", session.ErrUnknownDriver, sc.Driver)
		}

		store := session.NewCacheStore(driver)
		a.shutdownHooks = append(a.shutdownHooks, func(context.Context) error { return store.Close() })
		a.sessions = session.NewManager(store,
			session.WithCookieName(sc.CookieName),
			session.WithMaxAge(sc.MaxAge),
			session.WithDomain(sc.Domain),
			session.WithSecure(sc.Secure),
		)
		a.attachSessions()
	}
	if a.sessions != nil {
		a.container.Value(ServiceSession, a.sessions)
	}
	return nil
}

func (a *App) initEventLog(ctx context.Context) error {
	lc := a.cfg.EventLog
	if !lc.Enabled {
		return nil
	}

	sinks := []eventlog.Sink{eventlog.NewSlogSink(a.logger, slog.LevelDebug)}
	if lc.Connection != "" {
		conn, err := container.Resolve[*database.Conn](ctx, a.container, lc.Connection)
		if err != nil {
			return err
		}
		sink := eventlog.NewSQLSink(conn)
		if err := sink.Migrate(ctx, a.logger); err != nil {
			return err
		}
		sinks = append(sinks, sink)
	}

	a.eventLog = eventlog.New(lc, sinks...)
	a.container.Value(ServiceEventLog, a.eventLog)
	for _, p := range Phases() {
		a.events.AttachFunc(p, a.logEvent, PriorityEventLog)
	}
	return nil
}

func (a *App) initMetrics() {
	if a.metrics == nil && a.cfg.Metrics.Enabled {
		a.metrics = metrics.New(a.cfg.Metrics.Namespace)
		a.attachMetrics()
	}
	if a.metrics != nil {
		a.container.Value(ServiceMetrics, a.metrics)
	}
}

// initPipeline rebuilds the pipe as: probe endpoints, option middleware,
// then configured middleware.
func (a *App) initPipeline() error {
	pipe := NewPipe()

	if a.cfg.Health.Enabled {
		pipe.Pipe(
			Path(a.cfg.Health.LivenessPath, FromHandler(health.LivenessHandler())),
			Path(a.cfg.Health.ReadinessPath, FromHandler(a.health.ReadinessHandler())),
		)
	}
	if a.metrics != nil && a.cfg.Metrics.Enabled {
		pipe.Pipe(Path(a.cfg.Metrics.Path, FromHandler(a.metrics.Handler())))
	}
	pipe.Pipe(a.middleware...)

	for _, mc := range a.cfg.Middleware {
		factory, ok := a.factories[mc.Name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownMiddleware, mc.Name)
		}
		mw, err := factory(a.cfg)
		if err != nil {
			return fmt.Errorf("middleware %q: %w", mc.Name, err)
		}
		pipe.Pipe(Path(mc.Path, mw))
	}

	a.pipe.Store(pipe)
	a.container.Value(ServicePipeline, pipe)
	return nil
}

func (a *App) attachSessions() {
	a.events.AttachFunc(PhaseBootstrap, a.loadSession, PrioritySessionLoad)
	a.events.AttachFunc(PhaseFinish, a.saveSession, PrioritySessionSave)
}

func (a *App) attachMetrics() {
	a.observer = a.metrics
	a.events.AttachFunc(PhaseFinish, a.observeRequest, PriorityMetrics)
}

// Run drives r through the lifecycle and returns the final response.
// Headers collected from pass-through middleware are merged into it.
func (a *App) Run(r *http.Request) (*Response, error) {
	c := newCycle(a, r)
	err := c.Run()
	resp := c.Response()
	if resp != nil {
		mergeHeaders(resp.Header(), c.Headers())
	}
	return resp, err
}

// ServeHTTP implements http.Handler. Lifecycle errors become error
// responses through the ErrorHandler; panics become 500 responses.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c := newCycle(a, r)

	defer func() {
		if p := recover(); p != nil {
			if p == http.ErrAbortHandler {
				panic(p)
			}
			a.logger.ErrorContext(r.Context(), "panic in request lifecycle",
				slog.Any("panic", p),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			resp := Text(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			_ = a.Display(w, resp)
		}
	}()

	err := c.Run()
	resp := c.Response()
	if err != nil {
		a.logger.ErrorContext(r.Context(), "request lifecycle failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		resp = a.errorResponse(c.Request(), err)
	}
	mergeHeaders(resp.Header(), c.Headers())

	if err := a.Display(w, resp); err != nil {
		a.logger.WarnContext(r.Context(), "failed to write response", slog.Any("error", err))
	}
}

// Display writes resp to w.
func (a *App) Display(w http.ResponseWriter, resp *Response) error {
	return resp.WriteTo(w)
}

func (a *App) errorResponse(r *http.Request, err error) *Response {
	if a.errorHandler != nil {
		if resp := a.errorHandler(r, err); resp != nil {
			return resp
		}
	}
	if he, ok := AsHTTPError(err); ok {
		return Text(he.StatusCode(), he.Message)
	}
	return Text(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// Render converts controller output into a response:
//
//   - *Response is returned as is;
//   - View and map[string]any render their "templatefile" with
//     {"view": output}, using "statuscode" as the status;
//   - string and []byte become the body of a 200 response;
//   - nil yields an empty 200 response.
//
// Any other type fails with ErrUnsupportedOutput.
func (a *App) Render(ctx context.Context, output any) (*Response, error) {
	switch out := output.(type) {
	case *Response:
		if out == nil {
			return NewResponse(http.StatusOK), nil
		}
		return out, nil
	case View:
		return a.renderView(ctx, out)
	case map[string]any:
		return a.renderView(ctx, View(out))
	case string:
		return HTML(http.StatusOK, out), nil
	case []byte:
		resp := NewResponse(http.StatusOK)
		_, _ = resp.Write(out)
		return resp, nil
	case nil:
		return NewResponse(http.StatusOK), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedOutput, output)
	}
}

func (a *App) renderView(ctx context.Context, v View) (*Response, error) {
	if a.view == nil {
		return nil, ErrNoViewEngine
	}
	name := v.TemplateFile()
	if name == "" {
		return nil, ErrMissingTemplate
	}

	resp := NewResponse(v.StatusCode())
	resp.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.view.Render(ctx, resp, name, map[string]any{"view": map[string]any(v)}); err != nil {
		return nil, err
	}
	return resp, nil
}

// Routes returns the registered routes in registration order.
func (a *App) Routes() []RouteInfo {
	return a.routes.Routes()
}

// Config returns the configuration passed to Initialize, or nil.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Container returns the service container.
func (a *App) Container() *container.Container {
	return a.container
}

// Events returns the event manager.
func (a *App) Events() *EventManager {
	return a.events
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Sessions returns the session manager, or nil when sessions are off.
func (a *App) Sessions() *session.Manager {
	return a.sessions
}

// Shutdown runs the shutdown hooks in reverse registration order.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	hooks := a.shutdownHooks
	a.shutdownHooks = nil
	a.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
