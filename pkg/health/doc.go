// Package health provides liveness and readiness probes.
//
// A [Checker] holds named checks, typically the Healthcheck closures of
// database connections and redis clients, and runs them concurrently
// under a shared timeout:
//
//	checker := health.NewChecker(health.WithTimeout(2 * time.Second))
//	checker.Register("main", conn.Healthcheck)
//	checker.Register("redis", redis.Healthcheck(client))
//
// [LivenessHandler] always answers OK. [Checker.ReadinessHandler]
// answers 503 when any check fails. Both answer in JSON when the request
// asks for it with ?format=json or an application/json Accept header.
package health
