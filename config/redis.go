package config

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisOptions accepts either a redis:// URL or a bare host:port.
func RedisOptions(val string) (*redis.Options, error) {
	if val == "" {
		return nil, errors.New("REDIS_ADDR (or REDIS_URI/REDIS_URL) environment variable is not set")
	}
	if strings.HasPrefix(val, "redis://") || strings.HasPrefix(val, "rediss://") {
		return redis.ParseURL(val)
	}
	return &redis.Options{Addr: val}, nil
}

func InitRedis(ctx context.Context, val string) (*redis.Client, error) {
	opt, err := RedisOptions(val)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
