// Package cache provides the key-value drivers sessions are persisted through.
//
// Two implementations share the [Cache] interface:
//
//   - [Memory]: process-local map with lazy expiry and a janitor goroutine
//   - [Redis]: JSON values in Redis under an optional key prefix
//
// Example:
//
//	c := cache.NewMemory[string](cache.WithDefaultTTL(5 * time.Minute))
//	defer c.Close()
//
//	_ = c.Set(ctx, "greeting", "hello", 0) // default TTL
//	v, err := c.Get(ctx, "greeting")
package cache
