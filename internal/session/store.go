package session

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
)

// LegacyTokenKeys are the key names a session token has been stored under,
// in lookup order.
var LegacyTokenKeys = []string{"token", "authToken", "accessToken"}

// TokenStore is the per-session key-value store holding the session token.
type TokenStore interface {
	Get(ctx context.Context, sessionID, key string) (string, error)
	Set(ctx context.Context, sessionID, key, value string) error
	Delete(ctx context.Context, sessionID string, keys ...string) error
}

// RedisTokenStore keeps one hash per session.
type RedisTokenStore struct {
	client *redis.Client
	prefix string
}

// NewRedisTokenStore builds a store writing under prefix:<sessionID>.
func NewRedisTokenStore(client *redis.Client, prefix string) *RedisTokenStore {
	if prefix == "" {
		prefix = "session"
	}
	return &RedisTokenStore{client: client, prefix: prefix}
}

func (s *RedisTokenStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *RedisTokenStore) Get(ctx context.Context, sessionID, key string) (string, error) {
	val, err := s.client.HGet(ctx, s.key(sessionID), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (s *RedisTokenStore) Set(ctx context.Context, sessionID, key, value string) error {
	return s.client.HSet(ctx, s.key(sessionID), key, value).Err()
}

func (s *RedisTokenStore) Delete(ctx context.Context, sessionID string, keys ...string) error {
	if len(keys) == 0 {
		return s.client.Del(ctx, s.key(sessionID)).Err()
	}
	return s.client.HDel(ctx, s.key(sessionID), keys...).Err()
}

// MemoryTokenStore is an in-process TokenStore.
type MemoryTokenStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

// NewMemoryTokenStore builds an empty store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{data: make(map[string]map[string]string)}
}

func (s *MemoryTokenStore) Get(_ context.Context, sessionID, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[sessionID][key], nil
}

func (s *MemoryTokenStore) Set(_ context.Context, sessionID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[sessionID] == nil {
		s.data[sessionID] = make(map[string]string)
	}
	s.data[sessionID][key] = value
	return nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, sessionID string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(keys) == 0 {
		delete(s.data, sessionID)
		return nil
	}
	for _, key := range keys {
		delete(s.data[sessionID], key)
	}
	return nil
}
