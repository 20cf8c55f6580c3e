package internal

import (
	"context"
	"net/http"
	"reflect"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lightmvc/lightmvc/pkg/pathns"
)

// Action is a controller action. It returns the controller output handed
// to the render phase: a View, a string, raw bytes or a ready *Response.
type Action func(e *Event) (any, error)

// ActionMiddleware wraps an Action.
type ActionMiddleware func(next Action) Action

// Handler declares routes on a router.
// A Handler that also implements DispatchListener has OnDispatch called
// before any of its actions; returning a *Response skips the action.
//
// Example:
//
//	type PagesController struct{}
//
//	func (c *PagesController) Routes(r lightmvc.Router) {
//	    r.GET("/", c.home)
//	    r.GET("/posts/{slug}", c.post)
//	}
type Handler interface {
	Routes(r Router)
}

// Router is the interface handlers use to declare routes.
type Router interface {
	// GET registers an action for GET requests.
	GET(path string, a Action, mw ...ActionMiddleware)

	// POST registers an action for POST requests.
	POST(path string, a Action, mw ...ActionMiddleware)

	// PUT registers an action for PUT requests.
	PUT(path string, a Action, mw ...ActionMiddleware)

	// PATCH registers an action for PATCH requests.
	PATCH(path string, a Action, mw ...ActionMiddleware)

	// DELETE registers an action for DELETE requests.
	DELETE(path string, a Action, mw ...ActionMiddleware)

	// Group creates an inline route group sharing middleware.
	Group(fn func(r Router))

	// Route creates a route group with a pattern prefix.
	Route(pattern string, fn func(r Router))

	// Use appends middleware to actions registered afterwards on this router.
	Use(mw ...ActionMiddleware)

	// Mount serves an http.Handler below pattern with the prefix stripped.
	Mount(pattern string, h http.Handler)
}

// RouteInfo describes a registered route.
type RouteInfo struct {
	Controller Handler
	Method     string
	Pattern    string
}

// Namespace derives the controller's namespace from its package path and
// type name, so a *Post in ".../blog/controllers" yields {Post, blog}.
func (ri RouteInfo) Namespace() pathns.Namespace {
	if ri.Controller == nil {
		return pathns.Namespace{}
	}
	t := reflect.TypeOf(ri.Controller)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return pathns.Namespace{}
	}
	return pathns.FromPath(t.PkgPath()+"/"+t.Name(), "/")
}

// RouteMatch is the outcome of the route phase, stored under ParamRoute.
type RouteMatch struct {
	Action     Action
	Controller Handler
	Params     map[string]string
	Method     string
	Path       string
	Pattern    string
	// Status is 200 for a match, 404 when no pattern matched and
	// 405 when the pattern matched but the method did not.
	Status int
}

// Found reports whether an action matched.
func (m *RouteMatch) Found() bool {
	return m != nil && m.Status == http.StatusOK
}

// routeTable resolves requests to actions with a chi mux.
// The mux handlers only record the match; actions run in the dispatch phase.
type routeTable struct {
	mux    *chi.Mux
	routes []RouteInfo
}

type routeMatchKey struct{}

func newRouteTable(handlers []Handler) *routeTable {
	t := &routeTable{mux: chi.NewRouter()}
	t.mux.NotFound(func(_ http.ResponseWriter, r *http.Request) {
		if m, ok := r.Context().Value(routeMatchKey{}).(*RouteMatch); ok {
			m.Status = http.StatusNotFound
		}
	})
	t.mux.MethodNotAllowed(func(_ http.ResponseWriter, r *http.Request) {
		if m, ok := r.Context().Value(routeMatchKey{}).(*RouteMatch); ok {
			m.Status = http.StatusMethodNotAllowed
		}
	})

	for _, h := range handlers {
		h.Routes(&routerAdapter{router: t.mux, table: t, owner: h})
	}
	return t
}

// match resolves r against the table.
func (t *routeTable) match(r *http.Request) *RouteMatch {
	m := &RouteMatch{
		Status: http.StatusNotFound,
		Method: r.Method,
		Path:   r.URL.Path,
		Params: map[string]string{},
	}
	// Drop any route context from an outer chi router so matching starts fresh.
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, nil)
	ctx = context.WithValue(ctx, routeMatchKey{}, m)
	t.mux.ServeHTTP(NewResponse(http.StatusOK), r.WithContext(ctx))
	return m
}

// Routes returns the registered routes in registration order.
func (t *routeTable) Routes() []RouteInfo {
	return slices.Clone(t.routes)
}

// routerAdapter wraps chi.Router to implement the Router interface.
type routerAdapter struct {
	router chi.Router
	table  *routeTable
	owner  Handler
	prefix string
	mws    []ActionMiddleware
}

func (r *routerAdapter) GET(path string, a Action, mw ...ActionMiddleware) {
	r.handle(http.MethodGet, path, a, mw)
}

func (r *routerAdapter) POST(path string, a Action, mw ...ActionMiddleware) {
	r.handle(http.MethodPost, path, a, mw)
}

func (r *routerAdapter) PUT(path string, a Action, mw ...ActionMiddleware) {
	r.handle(http.MethodPut, path, a, mw)
}

func (r *routerAdapter) PATCH(path string, a Action, mw ...ActionMiddleware) {
	r.handle(http.MethodPatch, path, a, mw)
}

func (r *routerAdapter) DELETE(path string, a Action, mw ...ActionMiddleware) {
	r.handle(http.MethodDelete, path, a, mw)
}

func (r *routerAdapter) Group(fn func(Router)) {
	r.router.Group(func(cr chi.Router) {
		fn(r.child(cr, r.prefix))
	})
}

func (r *routerAdapter) Route(pattern string, fn func(Router)) {
	r.router.Route(pattern, func(cr chi.Router) {
		fn(r.child(cr, joinPattern(r.prefix, pattern)))
	})
}

func (r *routerAdapter) Use(mw ...ActionMiddleware) {
	r.mws = append(r.mws, mw...)
}

func (r *routerAdapter) Mount(pattern string, h http.Handler) {
	full := joinPattern(r.prefix, pattern)
	stripped := http.StripPrefix(strings.TrimRight(full, "/"), h)
	a := func(e *Event) (any, error) {
		resp := NewResponse(http.StatusOK)
		stripped.ServeHTTP(resp, e.Request())
		return resp, nil
	}
	rec := r.record("*", strings.TrimRight(pattern, "/")+"/*", a, nil)
	r.router.Handle(pattern, rec)
	r.router.Handle(strings.TrimRight(pattern, "/")+"/*", rec)
}

func (r *routerAdapter) child(cr chi.Router, prefix string) *routerAdapter {
	return &routerAdapter{
		router: cr,
		table:  r.table,
		owner:  r.owner,
		prefix: prefix,
		mws:    slices.Clone(r.mws),
	}
}

func (r *routerAdapter) handle(method, path string, a Action, mw []ActionMiddleware) {
	r.router.Method(method, path, r.record(method, path, a, mw))
}

// record builds the chi handler that stores the match for the dispatch phase.
func (r *routerAdapter) record(method, path string, a Action, mw []ActionMiddleware) http.HandlerFunc {
	// Route-specific middleware runs innermost; router-level middleware wraps it.
	all := append(slices.Clone(r.mws), mw...)
	for _, m := range slices.Backward(all) {
		a = m(a)
	}

	r.table.routes = append(r.table.routes, RouteInfo{
		Controller: r.owner,
		Method:     method,
		Pattern:    joinPattern(r.prefix, path),
	})

	owner := r.owner
	return func(_ http.ResponseWriter, req *http.Request) {
		m, ok := req.Context().Value(routeMatchKey{}).(*RouteMatch)
		if !ok {
			return
		}
		m.Status = http.StatusOK
		m.Action = a
		m.Controller = owner
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			m.Pattern = rctx.RoutePattern()
			for i, k := range rctx.URLParams.Keys {
				m.Params[k] = rctx.URLParams.Values[i]
			}
		}
	}
}

func joinPattern(prefix, pattern string) string {
	if prefix == "" {
		return pattern
	}
	return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(pattern, "/")
}
