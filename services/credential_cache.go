package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Credentials is what a customer client keeps after a successful table login.
type Credentials struct {
	TableID      string    `json:"table_id"`
	CustomerName string    `json:"customer_name"`
	SessionID    string    `json:"session_id"`
	CachedAt     time.Time `json:"cached_at"`
}

// CredentialCache stores customer credentials per client id. Get returns
// nil, nil when nothing is cached.
type CredentialCache interface {
	Get(ctx context.Context, clientID string) (*Credentials, error)
	Set(ctx context.Context, clientID string, creds Credentials) error
	Delete(ctx context.Context, clientID string) error
}

type memoryEntry struct {
	creds     Credentials
	expiresAt time.Time
}

// MemoryCredentialCache keeps credentials in process memory.
type MemoryCredentialCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration

	Now func() time.Time
}

func NewMemoryCredentialCache(ttl time.Duration) *MemoryCredentialCache {
	return &MemoryCredentialCache{entries: make(map[string]memoryEntry), ttl: ttl, Now: time.Now}
}

func (m *MemoryCredentialCache) Get(_ context.Context, clientID string) (*Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[clientID]
	if !ok {
		return nil, nil
	}
	if m.ttl > 0 && !m.Now().Before(e.expiresAt) {
		delete(m.entries, clientID)
		return nil, nil
	}
	creds := e.creds
	return &creds, nil
}

func (m *MemoryCredentialCache) Set(_ context.Context, clientID string, creds Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[clientID] = memoryEntry{creds: creds, expiresAt: m.Now().Add(m.ttl)}
	return nil
}

func (m *MemoryCredentialCache) Delete(_ context.Context, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, clientID)
	return nil
}

const credentialKeyPrefix = "siparist:credentials:"

// RedisCredentialCache keeps credentials in Redis so every API instance
// sees the same customer logins.
type RedisCredentialCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCredentialCache(client *redis.Client, ttl time.Duration) *RedisCredentialCache {
	return &RedisCredentialCache{client: client, ttl: ttl}
}

func (r *RedisCredentialCache) Get(ctx context.Context, clientID string) (*Credentials, error) {
	raw, err := r.client.Get(ctx, credentialKeyPrefix+clientID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		// entri rusak dianggap tidak ada
		_ = r.client.Del(ctx, credentialKeyPrefix+clientID).Err()
		return nil, nil
	}
	return &creds, nil
}

func (r *RedisCredentialCache) Set(ctx context.Context, clientID string, creds Credentials) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, credentialKeyPrefix+clientID, raw, r.ttl).Err()
}

func (r *RedisCredentialCache) Delete(ctx context.Context, clientID string) error {
	return r.client.Del(ctx, credentialKeyPrefix+clientID).Err()
}

// NewCredentialCache picks Redis when a client is available.
func NewCredentialCache(client *redis.Client, ttl time.Duration) CredentialCache {
	if client == nil {
		return NewMemoryCredentialCache(ttl)
	}
	return NewRedisCredentialCache(client, ttl)
}
