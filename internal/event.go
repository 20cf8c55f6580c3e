package internal

import (
	"context"
	"maps"
	"net/http"
)

// Well-known event parameter keys.
const (
	// ParamRoute holds the *RouteMatch produced by the route phase.
	ParamRoute = "route"
	// ParamController holds the Handler owning the matched action.
	ParamController = "controller"
	// ParamError holds the error that aborted an earlier phase. Set only for finish listeners.
	ParamError = "error"
)

// Event carries one request through the lifecycle phases.
// A single Event is created per request and its name is rewritten as the
// request advances, so listeners in later phases see params set by earlier ones.
type Event struct {
	cycle   *Cycle
	params  map[string]any
	name    Phase
	stopped bool
}

// NewEvent creates an event for the given phase bound to a cycle.
// The cycle may be nil when the event is triggered outside a request.
func NewEvent(name Phase, c *Cycle) *Event {
	return &Event{
		name:   name,
		cycle:  c,
		params: make(map[string]any),
	}
}

// Name returns the current phase.
func (e *Event) Name() Phase {
	return e.name
}

// SetName moves the event to another phase.
func (e *Event) SetName(p Phase) {
	e.name = p
}

// StopPropagation sets or clears the stop flag.
// When set, no further listeners run for the current phase.
func (e *Event) StopPropagation(stop bool) {
	e.stopped = stop
}

// Stopped reports whether a listener stopped propagation in the current phase.
func (e *Event) Stopped() bool {
	return e.stopped
}

// Cycle returns the request cycle the event belongs to.
func (e *Event) Cycle() *Cycle {
	return e.cycle
}

// App returns the application handling the request, or nil.
func (e *Event) App() *App {
	if e.cycle == nil {
		return nil
	}
	return e.cycle.app
}

// Request returns the current request, or nil outside a request.
func (e *Event) Request() *http.Request {
	if e.cycle == nil {
		return nil
	}
	return e.cycle.Request()
}

// Context returns the request context, falling back to context.Background.
func (e *Event) Context() context.Context {
	if r := e.Request(); r != nil {
		return r.Context()
	}
	return context.Background()
}

// Param returns a parameter value, or nil if unset.
func (e *Event) Param(key string) any {
	return e.params[key]
}

// SetParam stores a parameter for later listeners.
func (e *Event) SetParam(key string, v any) {
	e.params[key] = v
}

// Params returns a copy of all parameters.
func (e *Event) Params() map[string]any {
	return maps.Clone(e.params)
}

// Match returns the route match recorded during the route phase, or nil.
func (e *Event) Match() *RouteMatch {
	m, _ := e.params[ParamRoute].(*RouteMatch)
	return m
}

// RouteParam returns a URL parameter of the matched route.
func (e *Event) RouteParam(name string) string {
	if m := e.Match(); m != nil {
		return m.Params[name]
	}
	return ""
}
