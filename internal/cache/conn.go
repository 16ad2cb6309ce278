package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ZanzyTHEbar/kratu/internal/config"
)

// ErrRedisDisabled is returned by Ping on a connection without a server
var ErrRedisDisabled = errors.New("redis is disabled")

// Conn is the Redis connection shared by the response cache and the header
// event limiter. A disabled Conn holds no client and both stay in memory.
type Conn struct {
	client *redis.Client
	addr   string
}

// Dial connects to cfg.Addr. An empty Addr yields a disabled Conn. When the
// server does not answer, Dial returns a disabled Conn along with the ping
// error so the service can still start.
func Dial(ctx context.Context, cfg config.RedisConfig) (*Conn, error) {
	if cfg.Addr == "" {
		slog.Info("Redis not configured, cache and rate limiter stay in memory")
		return &Conn{}, nil
	}

	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return &Conn{addr: cfg.Addr}, fmt.Errorf("redis %s unreachable: %w", cfg.Addr, err)
	}

	slog.Info("Redis connected", "addr", cfg.Addr, "db", cfg.DB, "pool_size", cfg.PoolSize)
	return &Conn{client: client, addr: cfg.Addr}, nil
}

// Enabled reports whether a server answered at dial time
func (c *Conn) Enabled() bool {
	return c != nil && c.client != nil
}

// Client returns the Redis client, or nil when disabled
func (c *Conn) Client() *redis.Client {
	if !c.Enabled() {
		return nil
	}
	return c.client
}

// Store picks the response store: Redis behind a circuit breaker when the
// connection is up, the in-memory cache otherwise
func (c *Conn) Store(prefix string, ttl time.Duration) Store {
	if !c.Enabled() {
		return NewCache(ttl)
	}
	return NewRedisStore(c.client, prefix, ttl, DefaultBreakerSettings())
}

func (c *Conn) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return ErrRedisDisabled
	}
	return c.client.Ping(ctx).Err()
}

// Stats returns connection pool statistics
func (c *Conn) Stats() map[string]interface{} {
	if !c.Enabled() {
		return map[string]interface{}{"enabled": false}
	}
	pool := c.client.PoolStats()
	return map[string]interface{}{
		"enabled":     true,
		"addr":        c.addr,
		"hits":        pool.Hits,
		"misses":      pool.Misses,
		"timeouts":    pool.Timeouts,
		"total_conns": pool.TotalConns,
		"idle_conns":  pool.IdleConns,
		"stale_conns": pool.StaleConns,
	}
}

// Close closes the client. Stores built from c must not be used afterwards.
func (c *Conn) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
