package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lightmvc/lightmvc/pkg/eventlog"
)

// RequestIDHeader is the header the event log reads request IDs from.
const RequestIDHeader = "X-Request-ID"

// runPipeline answers the request from the bootstrap pipe, or lets it
// through to routing with whatever request the last middleware passed on.
func (a *App) runPipeline(e *Event) (any, error) {
	pipe := a.pipe.Load()
	if pipe.Len() == 0 {
		return nil, nil
	}
	resp, passed, err := pipe.Handle(e.Request())
	if errors.Is(err, ErrEmptyPipeline) {
		if c := e.Cycle(); c != nil {
			c.SetRequest(passed)
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// route matches the request and stores the *RouteMatch under ParamRoute.
func (a *App) route(e *Event) (any, error) {
	m := a.routes.match(e.Request())
	e.SetParam(ParamRoute, m)
	if m.Found() {
		e.SetParam(ParamController, m.Controller)
	}
	return m, nil
}

// dispatch runs the matched action. Controllers implementing
// DispatchListener get OnDispatch first; a *Response from it skips the action.
func (a *App) dispatch(e *Event) (any, error) {
	m := e.Match()
	if m == nil {
		m = a.routes.match(e.Request())
		e.SetParam(ParamRoute, m)
	}

	switch m.Status {
	case http.StatusOK:
	case http.StatusMethodNotAllowed:
		return a.methodNotAllowed(e)
	default:
		return a.notFound(e)
	}

	if dl, ok := m.Controller.(DispatchListener); ok {
		v, err := dl.OnDispatch(e)
		if err != nil {
			return nil, err
		}
		if IsResponse(v) {
			return v, nil
		}
	}
	return m.Action(e)
}

// render turns the controller output into the final response.
func (a *App) render(e *Event) (any, error) {
	var output any
	if c := e.Cycle(); c != nil {
		output = c.ControllerOutput()
	}
	return a.Render(e.Context(), output)
}

func (a *App) defaultNotFound(e *Event) (any, error) {
	msg := http.StatusText(http.StatusNotFound)
	if s := suggestRoute(e.Request().URL.Path, a.routes.Routes()); s != "" {
		msg = fmt.Sprintf("%s. Did you mean %s?", msg, s)
	}
	return Text(http.StatusNotFound, msg), nil
}

func defaultMethodNotAllowed(*Event) (any, error) {
	return Text(http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed)), nil
}

func (a *App) loadSession(e *Event) (any, error) {
	c := e.Cycle()
	if c == nil {
		return nil, nil
	}
	sess, err := a.sessions.Load(e.Context(), e.Request())
	if err != nil {
		return nil, err
	}
	c.SetSession(sess)
	return nil, nil
}

// saveSession persists a changed session and sets its cookie on the
// final response. Requests that ended without a response keep their
// previous session.
func (a *App) saveSession(e *Event) (any, error) {
	c := e.Cycle()
	if c == nil || c.Session() == nil || c.Response() == nil {
		return nil, nil
	}
	return nil, a.sessions.Save(e.Context(), c.Response(), c.Session())
}

func (a *App) logEvent(e *Event) (any, error) {
	if a.eventLog == nil || !a.eventLog.Allowed(e.Name().String()) {
		return nil, nil
	}

	r := e.Request()
	entry := eventlog.Entry{Phase: e.Name().String()}
	if r != nil {
		entry.Method = r.Method
		entry.Path = r.URL.Path
		entry.RequestID = r.Header.Get(RequestIDHeader)
	}
	if c := e.Cycle(); c != nil {
		if entry.RequestID == "" {
			entry.RequestID = c.Headers().Get(RequestIDHeader)
		}
		if resp := c.Response(); resp != nil {
			entry.Status = resp.StatusCode()
		}
	}
	if err, ok := e.Param(ParamError).(error); ok {
		entry.Error = err.Error()
	}

	if err := a.eventLog.Log(e.Context(), entry); err != nil {
		a.logger.WarnContext(e.Context(), "event log write failed", slog.Any("error", err))
	}
	return nil, nil
}

func (a *App) observeRequest(e *Event) (any, error) {
	c := e.Cycle()
	if c == nil || a.metrics == nil {
		return nil, nil
	}

	status := http.StatusInternalServerError
	if resp := c.Response(); resp != nil && e.Param(ParamError) == nil {
		status = resp.StatusCode()
	}
	var route string
	if m := e.Match(); m.Found() {
		route = m.Pattern
	}
	a.metrics.ObserveRequest(route, c.Request().Method, status, c.Elapsed())
	return nil, nil
}
