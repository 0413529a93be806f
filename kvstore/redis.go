package kvstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/garrettmk/broccoli/schemas"
)

const (
	connectTimeout = 5 * time.Second
	opTimeout      = 10 * time.Second
)

// RedisStore is a Store backed by Redis, shared across every worker process
// so ActionUsage and PendingCounter state cooperate under one true quota.
type RedisStore struct {
	client *redis.Client
	logger schemas.Logger
}

// RedisConfig configures the underlying Redis client. Only Addr is
// required; everything else is passed through to the client's own
// defaults when zero.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int

	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewRedisStore connects to Redis and verifies connectivity with a ping
// before returning.
func NewRedisStore(cfg RedisConfig, logger schemas.Logger) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, schemas.NewConfigurationError("redis address is required", nil)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}

	if logger != nil {
		logger.Info(fmt.Sprintf("connected to redis at %s", cfg.Addr))
	}

	return &RedisStore{client: client, logger: logger}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Incr(ctx context.Context, key string, delta int, ttl time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	existed, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	newVal, err := s.client.IncrBy(ctx, key, int64(delta)).Result()
	if err != nil {
		return 0, err
	}

	if ttl > 0 && existed == 0 {
		if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
			return int(newVal), err
		}
	}

	return int(newVal), nil
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return s.client.Expire(ctx, key, ttl).Err()
}

func (s *RedisStore) Del(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return s.client.Del(ctx, key).Err()
}

// Close releases the underlying Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
