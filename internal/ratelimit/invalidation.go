package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
)

// InvalidateIP removes the rate limit state of one client
func (rl *RateLimiter) InvalidateIP(ctx context.Context, ip string) error {
	key := fmt.Sprintf("ratelimit:events:%s", ip)

	rl.fallbackMutex.Lock()
	delete(rl.fallbackLimiters, key)
	rl.fallbackMutex.Unlock()

	if !rl.conn.Enabled() {
		slog.Info("Invalidated IP rate limits (in-memory)", "ip", ip)
		return nil
	}

	// redis_rate prefixes its keys
	return rl.deleteByPattern(ctx, "*"+key)
}

// InvalidateAll removes every rate limit state
func (rl *RateLimiter) InvalidateAll(ctx context.Context) error {
	rl.fallbackMutex.Lock()
	count := len(rl.fallbackLimiters)
	rl.fallbackLimiters = make(map[string]*fallbackEntry)
	rl.fallbackMutex.Unlock()

	if !rl.conn.Enabled() {
		slog.Warn("Invalidated all rate limits (in-memory)", "count", count)
		return nil
	}

	slog.Warn("Invalidating all rate limits")
	return rl.deleteByPattern(ctx, "*ratelimit:*")
}

// deleteByPattern deletes all Redis keys matching a pattern
func (rl *RateLimiter) deleteByPattern(ctx context.Context, pattern string) error {
	client := rl.conn.Client()

	var cursor uint64
	var deletedCount int

	for {
		keys, nextCursor, err := client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			deleted, err := client.Del(ctx, keys...).Result()
			if err != nil {
				return fmt.Errorf("failed to delete keys: %w", err)
			}
			deletedCount += int(deleted)
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	slog.Info("Deleted rate limit keys by pattern", "pattern", pattern, "count", deletedCount)
	return nil
}
