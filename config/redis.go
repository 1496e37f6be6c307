package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yeremiapane/siparist/utils"
)

// NewRedisClient connects to REDIS_ADDR. It returns nil when Redis is not
// configured or does not answer a ping; callers fall back to memory.
func NewRedisClient(cfg *Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		utils.ErrorLogger.Printf("Redis at %s unreachable, using in-memory credential cache: %v", cfg.RedisAddr, err)
		_ = client.Close()
		return nil
	}
	utils.InfoLogger.WithField("addr", cfg.RedisAddr).Info("Redis connected")
	return client
}
