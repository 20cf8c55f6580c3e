package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lightmvc/lightmvc/pkg/logger"
	"github.com/lightmvc/lightmvc/pkg/session"
)

// Cycle drives one request through bootstrap, route, dispatch, render and finish.
// It is created per request by App.Run and must not be reused.
type Cycle struct {
	app              *App
	request          *http.Request
	response         *Response
	controllerOutput any
	event            *Event
	session          *session.Session
	headers          http.Header
	started          time.Time
	haltedAt         Phase
	halted           bool
	ran              bool
}

type cycleKey struct{}

// CycleFromContext returns the cycle handling the request ctx belongs to.
func CycleFromContext(ctx context.Context) (*Cycle, bool) {
	c, ok := ctx.Value(cycleKey{}).(*Cycle)
	return c, ok && c != nil
}

// PhaseExtractor adds the lifecycle phase a record was logged in as "phase".
func PhaseExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		c, ok := CycleFromContext(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.String("phase", c.event.Name().String()), true
	}
}

func newCycle(a *App, r *http.Request) *Cycle {
	c := &Cycle{
		app:     a,
		headers: make(http.Header),
		started: time.Now(),
	}
	ctx := context.WithValue(withPendingHeaders(r.Context(), c.headers), cycleKey{}, c)
	c.request = r.WithContext(ctx)
	c.event = NewEvent(PhaseBootstrap, c)
	return c
}

// App returns the owning application.
func (c *Cycle) App() *App { return c.app }

// Event returns the event shared by all phases of this cycle.
func (c *Cycle) Event() *Event { return c.event }

// Request returns the current request.
func (c *Cycle) Request() *http.Request { return c.request }

// SetRequest replaces the request seen by later listeners.
func (c *Cycle) SetRequest(r *http.Request) {
	if r != nil {
		c.request = r
	}
}

// Response returns the final response, nil until one is produced.
func (c *Cycle) Response() *Response { return c.response }

// SetResponse replaces the response.
func (c *Cycle) SetResponse(r *Response) { c.response = r }

// ControllerOutput returns the value produced by the dispatch phase.
func (c *Cycle) ControllerOutput() any { return c.controllerOutput }

// SetControllerOutput replaces the value handed to the render phase.
func (c *Cycle) SetControllerOutput(v any) { c.controllerOutput = v }

// Session returns the session loaded during bootstrap, if sessions are enabled.
func (c *Cycle) Session() *session.Session { return c.session }

// SetSession attaches a session to the cycle.
func (c *Cycle) SetSession(s *session.Session) { c.session = s }

// Headers returns headers collected by pass-through middleware.
// They are merged into the final response unless it sets them itself.
func (c *Cycle) Headers() http.Header { return c.headers }

// ShortCircuited reports which phase answered the request early, if any.
func (c *Cycle) ShortCircuited() (Phase, bool) { return c.haltedAt, c.halted }

// Elapsed returns the time since the cycle started.
func (c *Cycle) Elapsed() time.Duration { return time.Since(c.started) }

// Run executes the lifecycle. Finish runs exactly once, even when an earlier
// phase fails or panics; the earlier error is exposed to finish listeners as
// the ParamError event param. A finish error is joined to the earlier one.
func (c *Cycle) Run() (err error) {
	if c.ran {
		return ErrCycleReused
	}
	c.ran = true

	defer func() {
		if err != nil {
			c.event.SetParam(ParamError, err)
		}
		if _, ferr := c.trigger(PhaseFinish, nil); ferr != nil {
			if err == nil {
				err = ferr
			} else {
				err = errors.Join(err, ferr)
			}
		}
	}()

	return c.advance()
}

func (c *Cycle) advance() error {
	res, err := c.trigger(PhaseBootstrap, IsResponse)
	if err != nil {
		return err
	}
	if res.Stopped() && IsResponse(res.Last()) {
		c.halt(PhaseBootstrap, res.Last().(*Response))
		return nil
	}

	if _, err := c.trigger(PhaseRoute, nil); err != nil {
		return err
	}

	res, err = c.trigger(PhaseDispatch, IsResponse)
	if err != nil {
		return err
	}
	if res.Stopped() {
		if IsResponse(res.Last()) {
			c.halt(PhaseDispatch, res.Last().(*Response))
			return nil
		}
	} else {
		c.controllerOutput = res.Last()
	}

	res, err = c.trigger(PhaseRender, IsResponse)
	if err != nil {
		return err
	}
	resp, ok := res.Last().(*Response)
	if !ok || resp == nil {
		return fmt.Errorf("%w: got %T", ErrNoResponse, res.Last())
	}
	c.response = resp
	return nil
}

func (c *Cycle) halt(p Phase, r *Response) {
	c.response = r
	c.haltedAt = p
	c.halted = true
}

// trigger resets the stop flag before every phase so a stop from the
// previous phase never skips listeners of the next one.
func (c *Cycle) trigger(p Phase, until func(any) bool) (*Result, error) {
	c.event.SetName(p)
	c.event.StopPropagation(false)

	start := time.Now()
	var (
		res *Result
		err error
	)
	if until == nil {
		res, err = c.app.events.Trigger(c.event)
	} else {
		res, err = c.app.events.TriggerUntil(until, c.event)
	}

	if c.app.observer != nil {
		c.app.observer.ObservePhase(p.String(), time.Since(start))
	}
	return res, err
}
