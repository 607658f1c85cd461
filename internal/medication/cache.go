package medication

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string) error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr string, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisCache{client: rdb, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("redis get %s: %v", key, err)
		}
		return "", false
	}
	return val, true
}

func (r *RedisCache) Set(ctx context.Context, key string, value string) error {
	return r.client.Set(ctx, key, value, r.ttl).Err()
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

type memoryEntry struct {
	value   string
	expires time.Time
}

// MemoryCache is the in-process fallback when no Redis address is set.
// A zero ttl keeps entries forever.
type MemoryCache struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		data: make(map[string]memoryEntry),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok {
		return "", false
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		delete(m.data, key)
		return "", false
	}
	return e.value, true
}

func (m *MemoryCache) Set(_ context.Context, key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{value: value}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.data[key] = e
	return nil
}

const notFoundMarker = "-"

type cachedRepo struct {
	Repository
	cache Cache
}

// WithCache decorates the per-request lookups of repo. List and Search pass
// through.
func WithCache(repo Repository, cache Cache) Repository {
	return &cachedRepo{Repository: repo, cache: cache}
}

func (c *cachedRepo) FindByName(ctx context.Context, name string) (*Medication, error) {
	key := "medication:name:" + strings.ToLower(strings.TrimSpace(name))
	if raw, ok := c.cache.Get(ctx, key); ok {
		if raw == notFoundMarker {
			return nil, ErrNotFound
		}
		var m Medication
		if err := json.Unmarshal([]byte(raw), &m); err == nil {
			return &m, nil
		}
	}

	m, err := c.Repository.FindByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		c.store(ctx, key, notFoundMarker)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(m); err == nil {
		c.store(ctx, key, string(raw))
	}
	return m, nil
}

func (c *cachedRepo) Interactions(ctx context.Context, medicationID int64) ([]Interaction, error) {
	key := "medication:interactions:" + strconv.FormatInt(medicationID, 10)
	if raw, ok := c.cache.Get(ctx, key); ok {
		var out []Interaction
		if err := json.Unmarshal([]byte(raw), &out); err == nil {
			return out, nil
		}
	}

	out, err := c.Repository.Interactions(ctx, medicationID)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(out); err == nil {
		c.store(ctx, key, string(raw))
	}
	return out, nil
}

func (c *cachedRepo) store(ctx context.Context, key, value string) {
	if err := c.cache.Set(ctx, key, value); err != nil {
		log.Printf("cache set %s: %v", key, err)
	}
}
