// Package config loads gateway configuration from the process environment
// (optionally backed by a .env file) into the schemas.Credentials and
// kvstore connection settings the rest of the gateway needs.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/garrettmk/broccoli/kvstore"
	"github.com/garrettmk/broccoli/schemas"
)

// Config is the fully-resolved, validated process configuration.
type Config struct {
	Credentials   schemas.Credentials
	Redis         kvstore.RedisConfig
	PendingTTL    time.Duration
	SoftTimeLimit time.Duration
}

// Load reads MWS_* and REDIS_* environment variables, optionally after
// loading envFile (a .env path; pass "" to skip). Missing or invalid
// required values produce a schemas.GatewayError of taxonomy
// Configuration (spec.md §7).
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, schemas.NewConfigurationError("failed to read env file "+envFile, err)
		}
	}

	creds := schemas.Credentials{
		AccessKey:     os.Getenv("MWS_ACCESS_KEY"),
		SecretKey:     os.Getenv("MWS_SECRET_KEY"),
		SellerID:      os.Getenv("MWS_SELLER_ID"),
		AssociateTag:  os.Getenv("MWS_ASSOCIATE_TAG"),
		AuthToken:     os.Getenv("MWS_AUTH_TOKEN"),
		Domain:        envOrDefault("MWS_REGION", "NA"),
		DefaultMarket: envOrDefault("MWS_DEFAULT_MARKET", "US"),
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, schemas.NewConfigurationError("REDIS_URL is required", nil)
	}
	redisConfig, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, schemas.NewConfigurationError("invalid REDIS_URL", err)
	}

	cfg := &Config{
		Credentials:   creds,
		Redis:         redisConfig,
		PendingTTL:    200 * time.Second,
		SoftTimeLimit: 30 * time.Second,
	}
	return cfg, nil
}

// parseRedisURL accepts either a bare "host:port" address or a full
// "redis://[user:pass@]host:port/db" URL.
func parseRedisURL(raw string) (kvstore.RedisConfig, error) {
	if !strings.Contains(raw, "://") {
		return kvstore.RedisConfig{Addr: raw}, nil
	}
	opts, err := redis.ParseURL(raw)
	if err != nil {
		return kvstore.RedisConfig{}, err
	}
	return kvstore.RedisConfig{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	}, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
