package internal

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Next continues a middleware pipeline with the given request.
type Next func(r *http.Request) (*Response, error)

// Middleware is one stage of the bootstrap pipeline.
// It either answers the request with a response or delegates to next.
//
// Example:
//
//	func Maintenance(on bool) lightmvc.Middleware {
//	    return func(r *http.Request, next lightmvc.Next) (*lightmvc.Response, error) {
//	        if on {
//	            return lightmvc.Text(503, "down for maintenance"), nil
//	        }
//	        return next(r)
//	    }
//	}
type Middleware func(r *http.Request, next Next) (*Response, error)

// Pipe is an ordered list of middleware run during bootstrap.
// When every middleware delegates, Handle returns ErrEmptyPipeline and the
// request proceeds to routing.
type Pipe struct {
	mws []Middleware
}

// NewPipe creates a pipe with the given middleware.
func NewPipe(mw ...Middleware) *Pipe {
	p := &Pipe{}
	p.Pipe(mw...)
	return p
}

// Pipe appends middleware. Nil entries are skipped.
func (p *Pipe) Pipe(mw ...Middleware) {
	for _, m := range mw {
		if m != nil {
			p.mws = append(p.mws, m)
		}
	}
}

// Len returns the number of middleware in the pipe.
func (p *Pipe) Len() int {
	return len(p.mws)
}

// Handle runs the pipe. If no middleware answers, it returns ErrEmptyPipeline
// together with the request as the last middleware passed it on.
func (p *Pipe) Handle(r *http.Request) (*Response, *http.Request, error) {
	var passed *http.Request
	resp, err := p.at(0, func(req *http.Request) { passed = req })(r)
	return resp, passed, err
}

func (p *Pipe) at(i int, done func(*http.Request)) Next {
	return func(r *http.Request) (*Response, error) {
		if i >= len(p.mws) {
			done(r)
			return nil, ErrEmptyPipeline
		}
		return p.mws[i](r, p.at(i+1, done))
	}
}

// Path scopes mw to requests whose path equals prefix or lies below it.
// A prefix of "/" (or one without any slash) matches every request.
func Path(prefix string, mw Middleware) Middleware {
	prefix = normalizePrefix(prefix)
	if prefix == "/" {
		return mw
	}
	return func(r *http.Request, next Next) (*Response, error) {
		if !underPrefix(r.URL.Path, prefix) {
			return next(r)
		}
		return mw(r, next)
	}
}

func normalizePrefix(prefix string) string {
	if !strings.Contains(prefix, "/") {
		return "/"
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if len(prefix) > 1 {
		prefix = strings.TrimRight(prefix, "/")
	}
	if prefix == "" {
		return "/"
	}
	return prefix
}

func underPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// FromHandler turns an http.Handler into a terminal middleware.
// The handler's output becomes the response; next is never called.
func FromHandler(h http.Handler) Middleware {
	return func(r *http.Request, _ Next) (*Response, error) {
		resp := NewResponse(http.StatusOK)
		h.ServeHTTP(resp, r)
		return resp, nil
	}
}

// FromHTTP adapts net/http style middleware (chi, go-chi/cors, ...).
// Headers it sets before passing the request on are carried to whatever
// response is eventually produced, including one rendered after routing.
func FromHTTP(mw func(http.Handler) http.Handler) Middleware {
	return func(r *http.Request, next Next) (*Response, error) {
		rec := NewResponse(http.StatusOK)

		var (
			resp   *Response
			err    error
			passed bool
		)
		mw(http.HandlerFunc(func(_ http.ResponseWriter, req *http.Request) {
			passed = true
			resp, err = next(req)
		})).ServeHTTP(rec, r)

		if !passed {
			return rec, nil
		}
		if resp != nil {
			mergeHeaders(resp.Header(), rec.Header())
			return resp, err
		}
		if errors.Is(err, ErrEmptyPipeline) {
			if h := PendingHeaders(r.Context()); h != nil {
				mergeHeaders(h, rec.Header())
			}
		}
		return nil, err
	}
}

type pendingHeadersKey struct{}

func withPendingHeaders(ctx context.Context, h http.Header) context.Context {
	return context.WithValue(ctx, pendingHeadersKey{}, h)
}

// PendingHeaders returns the headers that will be merged into the final
// response of the current request, or nil outside a lifecycle run.
func PendingHeaders(ctx context.Context) http.Header {
	h, _ := ctx.Value(pendingHeadersKey{}).(http.Header)
	return h
}
