// Package internal implements the lightmvc front controller.
//
// This package is internal and should not be used directly. Import
// "github.com/lightmvc/lightmvc" instead, which re-exports the public API.
//
// # Lifecycle
//
// Every request runs through five phases in order:
//
//	bootstrap -> route -> dispatch -> render -> finish
//
// Each phase triggers the listeners attached to it on the App's
// EventManager, highest priority first. Bootstrap, dispatch and render
// stop as soon as a listener returns a *Response; bootstrap and dispatch
// then skip straight to finish with that response. Route and finish always
// run all of their listeners. Stopping propagation in one phase never
// affects the next: the flag is cleared before every trigger.
//
// Finish runs exactly once per request, also when an earlier listener
// failed. The earlier error is available to finish listeners under
// ParamError and is returned from App.Run, joined with any finish error.
//
// # Built-in listeners
//
// New attaches the listeners that make the App an MVC framework:
//
//   - bootstrap: the middleware pipe (PriorityPipeline) and, with sessions,
//     the session loader (PrioritySessionLoad);
//   - route: the chi-backed route table, storing a *RouteMatch under ParamRoute;
//   - dispatch: the matched action, or the not found / method not allowed actions;
//   - render: conversion of controller output into a *Response;
//   - finish: session saving, request metrics and the event log.
//
// Custom listeners attach with WithListener, WithListenerFunc and
// WithLifecycleListener, or later through App.Events.
//
// # Controllers
//
// Controllers implement Handler and declare routes on a Router:
//
//	type Posts struct{}
//
//	func (c *Posts) Routes(r lightmvc.Router) {
//	    r.GET("/posts/{slug}", c.show)
//	}
//
//	func (c *Posts) show(e *lightmvc.Event) (any, error) {
//	    return lightmvc.View{"templatefile": "post", "slug": e.RouteParam("slug")}, nil
//	}
//
// Actions return a View (rendered by the configured view engine), a
// string, raw bytes or a ready *Response. Returning an *HTTPError produces
// an error response with its status.
//
// # Configuration
//
// App.Initialize wires the services named by the configuration: logger,
// database connections, view engine, sessions, event log, metrics, health
// probes and the middleware listed in the "middleware" section. Every
// service is registered in the container under a well-known name. Run
// works on an App that was never initialized.
package internal
