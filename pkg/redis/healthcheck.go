package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lightmvc/lightmvc/pkg/health"
)

// Healthcheck returns a readiness check that pings client and expects PONG.
func Healthcheck(client redis.UniversalClient) health.CheckFunc {
	return func(ctx context.Context) error {
		if client == nil {
			return fmt.Errorf("%w: no client", ErrHealthcheckFailed)
		}
		reply, err := client.Ping(ctx).Result()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrHealthcheckFailed, err)
		}
		if reply != "PONG" {
			return fmt.Errorf("%w: unexpected reply %q", ErrHealthcheckFailed, reply)
		}
		return nil
	}
}
