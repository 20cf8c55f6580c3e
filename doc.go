// Package lightmvc is an event-driven MVC front controller for Go web
// applications.
//
// Every request travels through five lifecycle phases, bootstrap, route,
// dispatch, render and finish, each triggered on the App's event manager.
// Routing, dispatching and rendering are ordinary listeners, so an
// application can add, replace or reorder behaviour by attaching its own
// listeners with a priority.
//
// # Quick Start
//
//	app := lightmvc.New(
//	    lightmvc.WithLogger("web", lightmvc.RequestIDExtractor()),
//	    lightmvc.WithHandlers(&controllers.Pages{}),
//	)
//
//	cfg, err := lightmvc.Boot(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Initialize(context.Background(), cfg); err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Serve(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Controllers
//
// Controllers implement [Handler] and return a [View], a string or a
// [Response] from their actions:
//
//	func (c *Pages) Routes(r lightmvc.Router) {
//	    r.GET("/", c.home)
//	}
//
//	func (c *Pages) home(e *lightmvc.Event) (any, error) {
//	    return lightmvc.View{"templatefile": "home"}, nil
//	}
//
// A controller that also implements OnDispatch runs it before any of its
// actions and may answer the request itself.
//
// # Listeners
//
// Listeners receive the shared *Event. Returning a *Response from a
// bootstrap or dispatch listener short-circuits the request straight to
// finish:
//
//	lightmvc.WithListenerFunc(lightmvc.PhaseBootstrap, func(e *lightmvc.Event) (any, error) {
//	    if maintenance.Load() {
//	        return lightmvc.Text(http.StatusServiceUnavailable, "back soon"), nil
//	    }
//	    return nil, nil
//	}, 50)
//
// Finish listeners always run, also after a failure, and find the error
// under [ParamError].
//
// # Middleware
//
// Middleware runs inside the bootstrap phase, before routing. The
// middleware package provides request IDs, panic recovery, CORS and rate
// limiting; New registers them by name so the "middleware" config section
// can place them:
//
//	middleware:
//	  - name: recover
//	  - name: requestid
//	  - path: /api
//	    name: ratelimit
//
// # Shutdown
//
// Serve and Run handle SIGINT/SIGTERM for graceful shutdown and close
// every service the App resolved from its container.
package lightmvc
