package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrMiss is returned by Get when the key is not present.
var ErrMiss = errors.New("cache miss")

// Config holds Redis cache configuration. The cache is optional: when
// Enabled is false the rest of the system runs without it.
type Config struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// DefaultConfig returns a disabled cache configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled: false,
		Addr:    "localhost:6379",
		TTL:     5 * time.Minute,
	}
}

// Client is a thin Redis wrapper used to memoize scraped search results for a
// short TTL so repeated tool calls within a session do not spin up extra
// browser sessions. A nil *Client is valid and behaves as a permanent miss.
type Client struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// New connects to Redis and verifies the connection. Returns (nil, nil) when
// the cache is disabled.
func New(cfg *Config, log *logger.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	log.Info("search cache initialized",
		zap.String("addr", cfg.Addr),
		zap.Duration("ttl", ttl))

	return &Client{rdb: rdb, ttl: ttl, logger: log}, nil
}

// Get fetches a cached value. Returns ErrMiss when absent or when the cache
// is disabled.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil {
		return nil, ErrMiss
	}

	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Set stores a value under the configured TTL. Errors are logged, not
// propagated: a broken cache must never fail a search.
func (c *Client) Set(ctx context.Context, key string, val []byte) {
	if c == nil {
		return
	}

	if err := c.rdb.Set(ctx, key, val, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
