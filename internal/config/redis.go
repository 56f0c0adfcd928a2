package config

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to cfg.RedisAddr. It returns nil when no address is
// configured or the server does not answer a ping, and callers then run
// without login rate limiting.
func NewRedisClient(cfg *AppConfig) *redis.Client {
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
		log.Printf("Redis at %s unreachable, login rate limiting disabled: %v", cfg.RedisAddr, err)
		_ = client.Close()
		return nil
	}
	log.Printf("Connected to Redis at %s", cfg.RedisAddr)
	return client
}
