package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/restaurant-backoffice/internal/domain"
)

// Persisted is what survives a restart: the token and the cached profile,
// always written and cleared together.
type Persisted struct {
	Token   string         `json:"token"`
	Profile domain.Profile `json:"user"`
}

// Storage persists a session with a fixed expiry horizon.
type Storage interface {
	Save(ctx context.Context, p Persisted) error
	Load(ctx context.Context) (Persisted, bool, error)
	Delete(ctx context.Context) error
}

// MemoryStorage keeps the session in process memory, honouring the horizon.
type MemoryStorage struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	value     *Persisted
	expiresAt time.Time
}

// NewMemoryStorage builds an in-process storage whose entries expire after ttl.
func NewMemoryStorage(ttl time.Duration) *MemoryStorage {
	return &MemoryStorage{ttl: ttl, now: time.Now}
}

// Save implements Storage.
func (m *MemoryStorage) Save(_ context.Context, p Persisted) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = &p
	m.expiresAt = m.now().Add(m.ttl)
	return nil
}

// Load implements Storage.
func (m *MemoryStorage) Load(_ context.Context) (Persisted, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.value == nil {
		return Persisted{}, false, nil
	}
	if m.ttl > 0 && !m.now().Before(m.expiresAt) {
		m.value = nil
		return Persisted{}, false, nil
	}
	return *m.value, true, nil
}

// Delete implements Storage.
func (m *MemoryStorage) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = nil
	return nil
}

// RedisStorage stores the session under a single key whose TTL is the
// persistence horizon.
type RedisStorage struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisStorage builds a Redis-backed storage. The key is derived from
// prefix and the operator name so several consoles can share one Redis.
func NewRedisStorage(client *redis.Client, prefix, operator string, ttl time.Duration) *RedisStorage {
	if operator == "" {
		operator = "default"
	}
	return &RedisStorage{client: client, key: prefix + ":" + operator, ttl: ttl}
}

// Save implements Storage.
func (r *RedisStorage) Save(ctx context.Context, p Persisted) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := r.client.Set(ctx, r.key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Load implements Storage.
func (r *RedisStorage) Load(ctx context.Context) (Persisted, bool, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Persisted{}, false, nil
	}
	if err != nil {
		return Persisted{}, false, fmt.Errorf("load session: %w", err)
	}
	var p Persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		return Persisted{}, false, fmt.Errorf("decode session: %w", err)
	}
	return p, true, nil
}

// Delete implements Storage.
func (r *RedisStorage) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
