// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"medichat/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient is the generic cache client (appointment cache, notified markers).
	CacheClient *redis.Client
	// FlowCacheClient is the dedicated client for booking flow state.
	FlowCacheClient *redis.Client
)

// InitCache initializes the generic Redis cache client.
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := CacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// InitFlowCache initializes the Redis client for booking flow state.
func InitFlowCache() {
	FlowCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisFlowDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := FlowCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Flow Cache): %v", err)
	}
}

// GetFlowCacheClient returns the Redis client for booking flow state.
func GetFlowCacheClient() *redis.Client {
	if FlowCacheClient == nil {
		InitFlowCache()
	}
	return FlowCacheClient
}

// InitRedis initializes all Redis clients at startup.
func InitRedis() {
	InitCache()
	InitFlowCache()
}
