package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Password  string `json:"password"`
	Namespace string `json:"namespace"`
}

type RedisSentinelConfig struct {
	SentinelHost     string `json:"sentinel_host"`
	SentinelPort     int    `json:"sentinel_port"`
	Password         string `json:"password"`
	MasterName       string `json:"master_name"`
	SentinelUsername string `json:"sentinel_username"`
	Namespace        string `json:"namespace"`
}

// NewRedisClient connects to a single Redis instance and pings it to make
// sure the connection actually works before handing it out.
func NewRedisClient(config *RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	slog.Debug("Connecting to Redis", "address", addr)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.Password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	slog.Info("Connected to Redis", "address", addr)
	return client, nil
}

// NewRedisSentinelClient connects to Redis through a Sentinel setup.
func NewRedisSentinelClient(config *RedisSentinelConfig) (*redis.Client, error) {
	sentinelAddr := fmt.Sprintf("%s:%d", config.SentinelHost, config.SentinelPort)
	slog.Debug("Connecting to Redis through Sentinel", "sentinel_address", sentinelAddr, "master_name", config.MasterName)

	client := redis.NewFailoverClient(&redis.FailoverOptions{
		MasterName:       config.MasterName,
		SentinelAddrs:    []string{sentinelAddr},
		SentinelUsername: config.SentinelUsername,
		SentinelPassword: config.Password,
		Password:         config.Password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis through Sentinel at %s: %w", sentinelAddr, err)
	}

	slog.Info("Connected to Redis through Sentinel", "sentinel_address", sentinelAddr, "master_name", config.MasterName)
	return client, nil
}
