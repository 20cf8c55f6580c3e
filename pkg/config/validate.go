package config

import (
	"errors"
	"fmt"
	"slices"
)

var (
	engines        = []string{"html", "markdown", "templ"}
	drivers        = []string{"postgres", "sqlite3"}
	sessionDrivers = []string{"memory", "redis"}
	logFormats     = []string{"json", "text"}
)

// Validate checks enumerated settings and required fields.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(engines, c.Templates.Engine) {
		errs = append(errs, fmt.Errorf("templates.engine %q: want one of %v", c.Templates.Engine, engines))
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format %q: want one of %v", c.Log.Format, logFormats))
	}
	for i, mw := range c.Middleware {
		if mw.Name == "" {
			errs = append(errs, fmt.Errorf("middleware[%d]: name is required", i))
		}
	}
	for name, conn := range c.Database {
		if !slices.Contains(drivers, conn.Driver) {
			errs = append(errs, fmt.Errorf("database.%s.driver %q: want one of %v", name, conn.Driver, drivers))
		}
		if conn.DSN == "" {
			errs = append(errs, fmt.Errorf("database.%s.dsn is required", name))
		}
	}
	if c.Session.Enabled {
		if !slices.Contains(sessionDrivers, c.Session.Driver) {
			errs = append(errs, fmt.Errorf("session.driver %q: want one of %v", c.Session.Driver, sessionDrivers))
		}
		if c.Session.Driver == "redis" && c.Session.RedisURL == "" {
			errs = append(errs, errors.New("session.redis_url is required for the redis driver"))
		}
	}
	if c.EventLog.Enabled && c.EventLog.Connection != "" {
		if _, ok := c.Database[c.EventLog.Connection]; !ok {
			errs = append(errs, fmt.Errorf("eventlog.connection %q: no such database connection", c.EventLog.Connection))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
