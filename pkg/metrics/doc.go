// Package metrics exposes Prometheus metrics for the request lifecycle:
// request counts and durations labelled by route pattern, per-phase
// listener durations and in-flight requests. Each Collector owns its
// registry, so several applications can live in one process.
package metrics
