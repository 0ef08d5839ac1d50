package marketdata

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store holds the single cache slot. Freshness is decided by the caller
// from CacheEntry.Timestamp; stores never consult a clock.
type Store interface {
	// Load returns nil, nil when the slot is empty.
	Load(ctx context.Context) (*CacheEntry, error)
	Save(ctx context.Context, entry CacheEntry) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the slot in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	entry *CacheEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (*CacheEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.entry == nil {
		return nil, nil
	}
	cp := *m.entry
	cp.Data = append([]DataPoint(nil), m.entry.Data...)
	return &cp, nil
}

func (m *MemoryStore) Save(_ context.Context, entry CacheEntry) error {
	entry.Data = append([]DataPoint(nil), entry.Data...)
	m.mu.Lock()
	m.entry = &entry
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	m.entry = nil
	m.mu.Unlock()
	return nil
}

// RedisStore keeps the slot as JSON under one key so several API replicas
// share it. The key expires after retention, which only bounds how long a
// stale entry can serve as last-known-good data.
type RedisStore struct {
	client    redis.Cmdable
	key       string
	retention time.Duration
}

// CacheKey is the Redis key for an area's slot.
func CacheKey(area string) string {
	return "market-trends:" + area
}

func NewRedisStore(client redis.Cmdable, area string, retention time.Duration) *RedisStore {
	return &RedisStore{
		client:    client,
		key:       CacheKey(area),
		retention: retention,
	}
}

func (r *RedisStore) Load(ctx context.Context) (*CacheEntry, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}
	return &entry, nil
}

func (r *RedisStore) Save(ctx context.Context, entry CacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := r.client.Set(ctx, r.key, raw, r.retention).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}
	return nil
}
