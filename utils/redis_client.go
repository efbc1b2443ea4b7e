package utils

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gomc/website/config"
)

var (
	redisClient *redis.Client
	redisMu     sync.RWMutex
)

// InitRedis connects to Redis when a host is configured. Without one every
// Redis-backed helper falls back to process memory.
func InitRedis(cfg config.AppConfig) *redis.Client {
	if cfg.RedisHost == "" {
		return nil
	}
	rc := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		Sugar.Warnf("redis ping failed addr=%s err=%v", rc.Options().Addr, err)
	}
	SetRedis(rc)
	return rc
}

// SetRedis swaps the shared client; nil disables Redis.
func SetRedis(rc *redis.Client) {
	redisMu.Lock()
	redisClient = rc
	redisMu.Unlock()
}

// GetRedis returns the shared client or nil when Redis is disabled.
func GetRedis() *redis.Client {
	redisMu.RLock()
	defer redisMu.RUnlock()
	return redisClient
}
