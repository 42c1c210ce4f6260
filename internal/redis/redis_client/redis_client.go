package redis_client

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const dialTimeout = 5 * time.Second

// NewRedisClient connects to the event broker and checks it answers. The
// lobby only appends to a stream and publishes, so the pool stays small.
func NewRedisClient(ctx context.Context, host string, port uint16) (*redis.Client, error) {
	rc := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", host, port),
		PoolSize:    poolSize(runtime.NumCPU()),
		DialTimeout: dialTimeout,
	})

	if err := ping(ctx, rc); err != nil {
		_ = rc.Close()
		zap.L().Error("redis.connect", zap.String("host", host), zap.Uint16("port", port), zap.Error(err))
		return nil, err
	}
	return rc, nil
}

func poolSize(cpus int) int {
	n := cpus * 2
	if n < 4 {
		n = 4
	}
	if n > 64 {
		n = 64
	}
	return n
}

func ping(ctx context.Context, rc redis.Cmdable) error {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}
