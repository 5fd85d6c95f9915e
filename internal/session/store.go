// internal/session/store.go
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the persistent key-value slot the session lives in. Load returns
// empty strings when nothing is persisted.
type Store interface {
	Save(ctx context.Context, address, displayName string) error
	Load(ctx context.Context) (address, displayName string, err error)
	Clear(ctx context.Context) error
}

// MemoryStore keeps the session in process memory. Used in tests and for
// one-shot commands that should not touch the persistent slot.
type MemoryStore struct {
	mu      sync.Mutex
	address string
	name    string
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Save(_ context.Context, address, displayName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.address, m.name = address, displayName
	return nil
}

func (m *MemoryStore) Load(_ context.Context) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.address, m.name, nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.address, m.name = "", ""
	return nil
}

// RedisStore persists the session slot in Redis, keyed per client profile so
// several wallets on one machine do not clobber each other.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore connects to Redis and verifies the connection with a short
// ping, mirroring application startup.
func NewRedisStore(addr, password string, db int, profile string) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &RedisStore{rdb: rdb, key: "orangejack:session:" + profile}, nil
}

func (r *RedisStore) Save(ctx context.Context, address, displayName string) error {
	if err := r.rdb.HSet(ctx, r.key, "address", address, "displayName", displayName).Err(); err != nil {
		return fmt.Errorf("failed to save session to Redis: %w", err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context) (string, string, error) {
	vals, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return "", "", fmt.Errorf("failed to load session from Redis: %w", err)
	}
	return vals["address"], vals["displayName"], nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to clear session in Redis: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (r *RedisStore) Close() error { return r.rdb.Close() }
