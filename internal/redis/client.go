package redisdb

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"absensi/internal/config"
)

func NewClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// Connect builds a client and checks that the server answers.
func Connect(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := NewClient(cfg)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", cfg.Redis.Addr, err)
	}
	log.Printf("[Redis] connected to %s (db %d)", cfg.Redis.Addr, cfg.Redis.DB)
	return client, nil
}
