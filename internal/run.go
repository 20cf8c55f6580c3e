package internal

import (
	"errors"
	"net/http"

	"github.com/lightmvc/lightmvc/pkg/hostrouter"
)

// ErrNoApps is returned by Run when neither a domain nor a fallback is set.
var ErrNoApps = errors.New("lightmvc: no domains or fallback configured")

// Serve runs the app as the only handler of an HTTP server and blocks
// until the base context ends or the process is signalled. The app's
// shutdown hooks run after the server stops.
//
// Example:
//
//	if err := app.Serve(lightmvc.ShutdownTimeout(10 * time.Second)); err != nil {
//	    log.Fatal(err)
//	}
func (a *App) Serve(opts ...RunOption) error {
	cfg := buildRunConfig(opts...)
	if cfg.address == "" && a.cfg != nil {
		cfg.address = a.cfg.Address
	}
	if cfg.logger == nil {
		cfg.logger = a.logger
	}

	return runServer(runtimeConfig{
		handler:         a,
		address:         cfg.address,
		logger:          cfg.logger,
		shutdownTimeout: cfg.shutdownTimeout,
		shutdownHooks:   append(cfg.shutdownHooks, a.Shutdown),
		baseCtx:         cfg.baseCtx,
	})
}

// Run starts one HTTP server for several apps routed by host and blocks
// until shutdown. Every app is shut down once, even if it serves
// several domains.
//
// Example:
//
//	err := lightmvc.Run(
//	    lightmvc.Domain("api.acme.com", api),
//	    lightmvc.Domain("*.acme.com", website),
//	    lightmvc.Fallback(landing),
//	    lightmvc.Address(":8080"),
//	)
func Run(opts ...RunOption) error {
	cfg := buildRunConfig(opts...)
	if len(cfg.domains) == 0 && cfg.fallback == nil {
		return ErrNoApps
	}

	var (
		handler http.Handler
		apps    []*App
	)
	seen := make(map[*App]bool)
	track := func(a *App) {
		if !seen[a] {
			seen[a] = true
			apps = append(apps, a)
		}
	}

	if len(cfg.domains) > 0 {
		var fallback http.Handler
		if cfg.fallback != nil {
			fallback = cfg.fallback
			track(cfg.fallback)
		}
		router := hostrouter.New(fallback)
		for _, d := range cfg.domains {
			router.Handle(d.pattern, d.app)
			track(d.app)
		}
		handler = router
	} else {
		handler = cfg.fallback
		track(cfg.fallback)
	}

	hooks := cfg.shutdownHooks
	for _, a := range apps {
		hooks = append(hooks, a.Shutdown)
	}
	if cfg.logger == nil {
		cfg.logger = apps[0].logger
	}

	return runServer(runtimeConfig{
		handler:         handler,
		address:         cfg.address,
		logger:          cfg.logger,
		shutdownTimeout: cfg.shutdownTimeout,
		shutdownHooks:   hooks,
		baseCtx:         cfg.baseCtx,
	})
}
