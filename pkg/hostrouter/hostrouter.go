package hostrouter

import (
	"net"
	"net/http"
	"slices"
	"strings"
)

// Router dispatches requests to a handler chosen by the Host header.
// Exact hosts win over wildcards; among wildcards the longest suffix wins,
// so "*.api.example.com" beats "*.example.com" for "v1.api.example.com".
type Router struct {
	exact    map[string]http.Handler
	fallback http.Handler
	suffixes []suffixRoute
}

type suffixRoute struct {
	handler http.Handler
	suffix  string
}

// New creates a router. A nil fallback answers unmatched hosts with 404.
func New(fallback http.Handler) *Router {
	if fallback == nil {
		fallback = http.NotFoundHandler()
	}
	return &Router{
		exact:    make(map[string]http.Handler),
		fallback: fallback,
	}
}

// Handle registers h for pattern: "api.example.com" or "*.example.com".
// Registering a pattern twice replaces the earlier handler.
func (r *Router) Handle(pattern string, h http.Handler) {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" || h == nil {
		return
	}
	rest, ok := strings.CutPrefix(pattern, "*.")
	if !ok {
		r.exact[pattern] = h
		return
	}

	suffix := "." + rest
	r.suffixes = slices.DeleteFunc(r.suffixes, func(s suffixRoute) bool { return s.suffix == suffix })
	r.suffixes = append(r.suffixes, suffixRoute{handler: h, suffix: suffix})
	slices.SortStableFunc(r.suffixes, func(a, b suffixRoute) int { return len(b.suffix) - len(a.suffix) })
}

// Lookup returns the handler registered for host, if any.
func (r *Router) Lookup(host string) (http.Handler, bool) {
	host = Host(host)
	if h, ok := r.exact[host]; ok {
		return h, true
	}
	for _, s := range r.suffixes {
		if strings.HasSuffix(host, s.suffix) && len(host) > len(s.suffix) {
			return s.handler, true
		}
	}
	return nil, false
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if h, ok := r.Lookup(req.Host); ok {
		h.ServeHTTP(w, req)
		return
	}
	r.fallback.ServeHTTP(w, req)
}

// Host lowercases host and strips its port. IPv6 literals keep their brackets.
func Host(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		if strings.Contains(h, ":") {
			h = "[" + h + "]"
		}
		host = h
	}
	return strings.ToLower(host)
}

// Subdomain returns the part of the request host in front of base,
// or "" when the host is base itself or lies outside it.
func Subdomain(r *http.Request, base string) string {
	sub, ok := strings.CutSuffix(Host(r.Host), "."+strings.ToLower(base))
	if !ok {
		return ""
	}
	return sub
}
