// Package hostrouter routes requests to handlers by Host header.
//
// Patterns are exact ("api.example.com") or wildcard ("*.example.com").
// Matching is case-insensitive and ignores the port. Hosts without a
// registered pattern go to the fallback handler.
//
//	r := hostrouter.New(landing)
//	r.Handle("api.example.com", api)
//	r.Handle("*.example.com", tenants)
//	http.ListenAndServe(":8080", r)
package hostrouter
