package cache

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

var Client *redis.Client

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
)

// Options turns a REDIS_URL value into client options. Both a bare host:port
// and a redis:// or rediss:// URL are accepted.
func Options(addr string) (*redis.Options, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = "localhost:6379"
	}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		return parseRedisURL(addr)
	}
	return &redis.Options{Addr: addr}, nil
}

// InitRedis connects the shared Client. A failed connection leaves Client nil
// so callers run without a cache.
func InitRedis(ctx context.Context, addr string) {
	opts, err := Options(addr)
	if err != nil {
		log.Fatalf("failed to parse REDIS_URL: %v", err)
	}

	client := newRedisClient(opts)
	if err := pingRedis(ctx, client); err != nil {
		log.Printf("Warning: Redis unavailable at %s, caching disabled: %v", opts.Addr, err)
		_ = client.Close()
		Client = nil
		return
	}
	Client = client
	log.Println("Connected to Redis")
}
