// Package redis opens go-redis clients for the session store and
// exposes a readiness check for them.
//
//	client, err := redis.Open(ctx, cfg.Session.RedisURL, redis.WithPoolSize(20))
//	if err != nil {
//		return err
//	}
//	checker.Register("redis", redis.Healthcheck(client))
package redis
