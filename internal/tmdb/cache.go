package tmdb

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dustin/movie-chat-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// ResponseCache stores raw provider response bodies. A miss or backend failure
// both report ok=false; the client then goes to the network.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

const (
	memorySweepSize     = 1024
	memorySweepInterval = time.Minute
)

// MemoryCache is a process local TTL cache. Expired entries are dropped on
// read and by a sweep that Set runs once the map doubles in size or the
// sweep interval has passed.
type MemoryCache struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	now       func() time.Time
	sweepSize int
	lastSweep time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries:   make(map[string]memoryEntry),
		now:       time.Now,
		sweepSize: memorySweepSize,
		lastSweep: time.Now(),
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, true
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.entries[key] = memoryEntry{value: value, expiresAt: now.Add(ttl)}
	if len(m.entries) >= m.sweepSize || now.Sub(m.lastSweep) >= memorySweepInterval {
		m.sweep(now)
	}
}

// sweep must be called with mu held
func (m *MemoryCache) sweep(now time.Time) {
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
	m.lastSweep = now
	m.sweepSize = 2 * len(m.entries)
	if m.sweepSize < memorySweepSize {
		m.sweepSize = memorySweepSize
	}
}

// Len reports the number of stored entries, expired ones included
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// RedisCache shares provider responses between instances
type RedisCache struct {
	client *redis.Client
	prefix string
	logger *logger.Logger
}

func NewRedisCache(client *redis.Client, prefix string, log *logger.Logger) *RedisCache {
	if prefix == "" {
		prefix = "tmdb:"
	}
	return &RedisCache{
		client: client,
		prefix: prefix,
		logger: log.WithComponent("tmdb-redis-cache"),
	}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Errorf(err, "Redis get failed for %s", key)
		}
		return nil, false
	}
	return val, true
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		r.logger.Errorf(err, "Redis set failed for %s", key)
	}
}
