package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jerneif/lotto-api/internal/config"
)

// OpenRedis connects to conf.Addr, which is either host:port or a
// redis:// URL, and pings it.
func OpenRedis(ctx context.Context, conf *config.RedisConfig) (*redis.Client, error) {
	var opts *redis.Options
	if strings.HasPrefix(conf.Addr, "redis://") || strings.HasPrefix(conf.Addr, "rediss://") {
		parsed, err := redis.ParseURL(conf.Addr)
		if err != nil {
			return nil, fmt.Errorf("redis.ParseURL -> %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     conf.Addr,
			Password: conf.Password,
			DB:       conf.DB,
		}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("client.Ping -> %w", err)
	}

	return client, nil
}
