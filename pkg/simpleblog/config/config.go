// Package config builds the store backends for the simple-blog service from
// declarative configuration.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eslab/simple-blog/pkg/simpleblog"
	memorystore "github.com/eslab/simple-blog/pkg/simpleblog/store/memory"
	pgstore "github.com/eslab/simple-blog/pkg/simpleblog/store/postgres"
	redisstore "github.com/eslab/simple-blog/pkg/simpleblog/store/redis"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:         "8080",
		Environment:  "development",
		DatabaseType: "memory",
	}
}

// ServerConfig represents server configuration for the simple-blog service.
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres", "redis"
}

// WithDatabaseURL selects the store backend from a connection URL:
// "" or "memory://" for in-memory, "postgres://..." (or "postgresql://..."),
// "redis://...".
func WithDatabaseURL(databaseURL string) Option {
	return func(c *ServerConfig) error {
		switch {
		case databaseURL == "" || databaseURL == "memory" || databaseURL == "memory://":
			c.DatabaseType = "memory"
			c.DatabaseURL = ""
		case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
			c.DatabaseType = "postgres"
			c.DatabaseURL = databaseURL
		case strings.HasPrefix(databaseURL, "redis://"), strings.HasPrefix(databaseURL, "rediss://"):
			c.DatabaseType = "redis"
			c.DatabaseURL = databaseURL
		default:
			return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory://', 'postgres://...' or 'redis://...')", databaseURL)
		}
		return nil
	}
}

// WithPort overrides the listen port.
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		c.Port = port
		return nil
	}
}

// WithEnvironment overrides the runtime environment name.
func WithEnvironment(environment string) Option {
	return func(c *ServerConfig) error {
		c.Environment = environment
		return nil
	}
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.DatabaseType {
	case "memory":
	case "postgres", "redis":
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required when using %s", c.DatabaseType)
		}
	default:
		return errors.New("database_type must be 'memory', 'postgres' or 'redis'")
	}

	return nil
}

// Stores bundles the per-entity collection stores the service serves.
type Stores struct {
	Blogs simpleblog.Store[*simpleblog.Blog]
	Posts simpleblog.Store[*simpleblog.Post]
	Tags  simpleblog.Store[*simpleblog.Tag]
}

// BuildStores creates the per-entity stores for the configured backend. The
// returned close function releases the shared connection pool and is safe to
// call on every path.
func (c *ServerConfig) BuildStores(ctx context.Context) (*Stores, func(), error) {
	switch c.DatabaseType {
	case "memory":
		return &Stores{
			Blogs: memorystore.NewStore[simpleblog.Blog](),
			Posts: memorystore.NewStore[simpleblog.Post](),
			Tags:  memorystore.NewStore[simpleblog.Tag](),
		}, func() {}, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("database ping failed: %w", err)
		}
		for _, table := range []string{"blog", "post", "tag"} {
			if err := pgstore.EnsureTable(ctx, pool, table); err != nil {
				pool.Close()
				return nil, nil, err
			}
		}
		return &Stores{
			Blogs: pgstore.NewStoreWithPool[simpleblog.Blog](pool, "blog"),
			Posts: pgstore.NewStoreWithPool[simpleblog.Post](pool, "post"),
			Tags:  pgstore.NewStoreWithPool[simpleblog.Tag](pool, "tag"),
		}, pool.Close, nil

	case "redis":
		redisOpts, err := goredis.ParseURL(c.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		client := goredis.NewClient(redisOpts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis ping failed: %w", err)
		}
		return &Stores{
			Blogs: redisstore.NewStore[simpleblog.Blog](client, "blog"),
			Posts: redisstore.NewStore[simpleblog.Post](client, "post"),
			Tags:  redisstore.NewStore[simpleblog.Tag](client, "tag"),
		}, func() { client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}
