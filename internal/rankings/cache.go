package rankings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ZanzyTHEbar/kratu/internal/cache"
	"github.com/ZanzyTHEbar/kratu/internal/monitoring"
)

const (
	snapshotKeyPrefix = "snapshot:"
	listKeyPrefix     = "snapshots:list:"
)

// SnapshotCache provides read-through caching for stored snapshots. Backend
// failures are logged and treated as misses.
type SnapshotCache struct {
	store   cache.Store
	metrics *monitoring.Metrics
}

// NewSnapshotCache wraps store
func NewSnapshotCache(store cache.Store, metrics *monitoring.Metrics) *SnapshotCache {
	return &SnapshotCache{store: store, metrics: metrics}
}

func snapshotKey(id string) string {
	return snapshotKeyPrefix + id
}

func listKey(dataset string, limit int) string {
	return fmt.Sprintf("%s%s:%d", listKeyPrefix, dataset, limit)
}

func (sc *SnapshotCache) get(ctx context.Context, key string, v interface{}) bool {
	data, found, err := sc.store.Get(ctx, key)
	if err != nil {
		slog.Warn("Snapshot cache unavailable", "error", err, "key", key)
	}
	if !found {
		sc.miss()
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		slog.Error("Failed to unmarshal cached snapshot data", "error", err, "key", key)
		sc.miss()
		return false
	}
	if sc.metrics != nil {
		sc.metrics.IncrementCacheHit()
	}
	return true
}

func (sc *SnapshotCache) miss() {
	if sc.metrics != nil {
		sc.metrics.IncrementCacheMiss()
	}
}

func (sc *SnapshotCache) set(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to marshal snapshot data for cache", "error", err, "key", key)
		return
	}
	if err := sc.store.Set(ctx, key, data); err != nil {
		slog.Warn("Failed to cache snapshot data", "error", err, "key", key)
	}
}

// GetSnapshot retrieves a cached snapshot
func (sc *SnapshotCache) GetSnapshot(ctx context.Context, id string) (*Snapshot, bool) {
	var s Snapshot
	if !sc.get(ctx, snapshotKey(id), &s) {
		return nil, false
	}
	slog.Debug("Snapshot cache hit", "snapshot_id", id)
	return &s, true
}

// SetSnapshot caches a snapshot
func (sc *SnapshotCache) SetSnapshot(ctx context.Context, s *Snapshot) {
	sc.set(ctx, snapshotKey(s.ID), s)
}

// GetList retrieves a cached snapshot listing
func (sc *SnapshotCache) GetList(ctx context.Context, dataset string, limit int) (*ListResponse, bool) {
	var resp ListResponse
	if !sc.get(ctx, listKey(dataset, limit), &resp) {
		return nil, false
	}
	return &resp, true
}

// SetList caches a snapshot listing
func (sc *SnapshotCache) SetList(ctx context.Context, dataset string, limit int, resp *ListResponse) {
	sc.set(ctx, listKey(dataset, limit), resp)
}

// InvalidateLists drops every cached listing. Snapshots are immutable, so
// only listings go stale.
func (sc *SnapshotCache) InvalidateLists(ctx context.Context) {
	if err := sc.store.DeletePrefix(ctx, listKeyPrefix); err != nil {
		slog.Warn("Failed to invalidate snapshot listings", "error", err)
	}
}

// InvalidateSnapshot drops one cached snapshot
func (sc *SnapshotCache) InvalidateSnapshot(ctx context.Context, id string) {
	if err := sc.store.Delete(ctx, snapshotKey(id)); err != nil {
		slog.Warn("Failed to invalidate snapshot", "snapshot_id", id, "error", err)
	}
}

// GetStats returns cache statistics
func (sc *SnapshotCache) GetStats() map[string]interface{} {
	return sc.store.Stats()
}
