package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// RedisStore keeps items in Redis behind a circuit breaker, so an unhealthy
// Redis fails fast instead of stalling every request.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker
}

// BreakerSettings tunes the breaker around Redis calls
type BreakerSettings struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

// DefaultBreakerSettings trips after five consecutive failures and retries
// again after thirty seconds
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{MaxFailures: 5, OpenTimeout: 30 * time.Second}
}

// NewRedisStore stores keys under prefix with the given TTL
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration, bs BreakerSettings) *RedisStore {
	settings := gobreaker.Settings{
		Name:        "redis-cache",
		MaxRequests: 1,
		Timeout:     bs.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			switch to {
			case gobreaker.StateOpen:
				slog.Warn("Cache circuit breaker opened", "breaker", name, "from", from.String())
			case gobreaker.StateHalfOpen:
				slog.Info("Cache circuit breaker half-open", "breaker", name)
			case gobreaker.StateClosed:
				slog.Info("Cache circuit breaker closed", "breaker", name)
			}
		},
	}

	return &RedisStore{
		client:  client,
		prefix:  prefix,
		ttl:     ttl,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (r *RedisStore) key(k string) string {
	return r.prefix + k
}

// Get retrieves an item
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.breaker.Execute(func() (interface{}, error) {
		return r.client.Get(ctx, r.key(key)).Bytes()
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v.([]byte), true, nil
}

// Set stores an item with the store TTL
func (r *RedisStore) Set(ctx context.Context, key string, data []byte) error {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.client.Set(ctx, r.key(key), data, r.ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes an item
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.client.Del(ctx, r.key(key)).Err()
	})
	if err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// DeletePrefix removes every item whose key starts with prefix
func (r *RedisStore) DeletePrefix(ctx context.Context, prefix string) error {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		iter := r.client.Scan(ctx, 0, r.key(prefix)+"*", 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			return nil, nil
		}
		return nil, r.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		return fmt.Errorf("redis delete prefix %s: %w", prefix, err)
	}
	return nil
}

// State returns the breaker state
func (r *RedisStore) State() gobreaker.State {
	return r.breaker.State()
}

// Stats returns breaker and pool statistics
func (r *RedisStore) Stats() map[string]interface{} {
	counts := r.breaker.Counts()
	pool := r.client.PoolStats()
	return map[string]interface{}{
		"backend":              "redis",
		"breaker_state":        r.breaker.State().String(),
		"consecutive_failures": counts.ConsecutiveFailures,
		"total_failures":       counts.TotalFailures,
		"ttl_seconds":          r.ttl.Seconds(),
		"pool_hits":            pool.Hits,
		"pool_misses":          pool.Misses,
		"pool_total_conns":     pool.TotalConns,
	}
}

// Close is a no-op; the client is owned by whoever created it
func (r *RedisStore) Close() error {
	return nil
}
