package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration
type Config struct {
	Host          string
	Port          int
	Password      string
	DB            int
	DialTimeout   time.Duration
	RetryAttempts int
	RetryInterval time.Duration
}

// Client represents a Redis client for the remote store
type Client struct {
	rdb    *goredis.Client
	config *Config
	logger *slog.Logger
}

// NewClient creates a new Redis client and verifies the connection with a
// bounded number of ping attempts
func NewClient(config *Config, logger *slog.Logger) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    config.Password,
		DB:          config.DB,
		DialTimeout: config.DialTimeout,
	})

	attempts := config.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		logger.Info("Connecting to Redis",
			slog.String("addr", addr),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
		)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = rdb.Ping(ctx).Err()
		cancel()
		if err == nil {
			logger.Info("Successfully connected to Redis")
			break
		}

		logger.Error("Failed to connect to Redis",
			slog.Any("error", err),
			slog.Int("attempt", attempt),
		)

		if attempt < attempts {
			time.Sleep(config.RetryInterval)
		}
	}
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis after %d attempts: %w", attempts, err)
	}

	return &Client{
		rdb:    rdb,
		config: config,
		logger: logger,
	}, nil
}

// GetClient returns the underlying go-redis client
func (c *Client) GetClient() *goredis.Client {
	return c.rdb
}

// Ping checks the Redis connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	c.logger.Info("Closing Redis connection")

	if c.rdb != nil {
		if err := c.rdb.Close(); err != nil {
			c.logger.Error("Failed to close Redis connection",
				slog.Any("error", err),
			)
			return err
		}
	}

	c.logger.Info("Redis connection closed successfully")
	return nil
}
