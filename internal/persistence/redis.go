package persistence

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/estatepro/leadsync/internal/config"
	"github.com/estatepro/leadsync/internal/session"
)

const defaultKeyPrefix = "leadsync:session"

// Redis is the session key-value store's connection. Every session hash
// lives under KeyPrefix.
type Redis struct {
	Client    *redis.Client
	keyPrefix string
}

// NewRedis opens the session store connection. An unreachable server is
// logged, not fatal: sessions fail to open or restore until it comes up, and
// /health/ready reports it.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("session store unreachable", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("session store connected", zap.String("addr", cfg.Addr), zap.String("key_prefix", prefix))
	}

	return &Redis{Client: client, keyPrefix: prefix}
}

// KeyPrefix returns the namespace session hashes are written under.
func (r *Redis) KeyPrefix() string {
	if r == nil || r.keyPrefix == "" {
		return defaultKeyPrefix
	}
	return r.keyPrefix
}

// SessionTokens returns the token store backed by this connection.
func (r *Redis) SessionTokens() *session.RedisTokenStore {
	return session.NewRedisTokenStore(r.Client, r.KeyPrefix())
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping is the readiness check for the session store.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("session store not configured")
	}
	return r.Client.Ping(ctx).Err()
}
