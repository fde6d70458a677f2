// Package redis builds clients for the broker Redis instance shared by the
// task queue and the health check.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	goredis "github.com/redis/go-redis/v9"
)

// PingTimeout bounds health-check pings.
const PingTimeout = 3 * time.Second

// NewClient parses a redis:// URL and returns a go-redis client.
func NewClient(url string) (*goredis.Client, error) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return goredis.NewClient(opt), nil
}

// AsynqOpt converts a redis:// URL into asynq connection options, keeping
// the database number so the task queue stays isolated from other Redis users.
func AsynqOpt(url string) (asynq.RedisClientOpt, error) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("invalid redis url: %w", err)
	}
	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}

// Ping checks connectivity within PingTimeout.
func Ping(ctx context.Context, client *goredis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}
