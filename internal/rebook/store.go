// Package rebook persists the parameters of the most recent booking
// and can resubmit them after a no-driver timeout.
package rebook

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/instaaid/ride-tracker/internal/models"
)

// Store persists the last-ride snapshot. Implementations must treat
// absence as a normal condition, not an error.
type Store interface {
	Save(ctx context.Context, s models.Snapshot) error
	Load(ctx context.Context) (models.Snapshot, bool, error)
	Clear(ctx context.Context) error
}

// MemoryStore keeps the snapshot in process memory. It is the default
// when no redis address is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	snap *models.Snapshot
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Save(ctx context.Context, s models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := s
	m.snap = &copied
	return nil
}

func (m *MemoryStore) Load(ctx context.Context) (models.Snapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil {
		return models.Snapshot{}, false, nil
	}
	return *m.snap, true, nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = nil
	return nil
}

// RedisStore keeps the snapshot in redis so it survives agent
// restarts; the no-driver window is derived from the server timestamp
// either way, so a restart cannot stretch it.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisStore(addr, password, key string) *RedisStore {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if key == "" {
		key = "last_ride"
	}
	return &RedisStore{client: c, key: key, ttl: 24 * time.Hour}
}

func (r *RedisStore) Save(ctx context.Context, s models.Snapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, b, r.ttl).Err()
}

func (r *RedisStore) Load(ctx context.Context) (models.Snapshot, bool, error) {
	b, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Snapshot{}, false, nil
	}
	if err != nil {
		return models.Snapshot{}, false, err
	}
	var s models.Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		// a corrupt snapshot is as good as no snapshot
		return models.Snapshot{}, false, nil
	}
	return s, true, nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

func (r *RedisStore) Close() error { return r.client.Close() }
