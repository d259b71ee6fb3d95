package db

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ridehail/backend/internal/config"
)

const redisRevokedPrefix = "ridehail:revoked:"

// RedisRevocations keeps revoked tokens as keys with a TTL equal to the
// retention window. Keys hold a digest of the token, not the token.
type RedisRevocations struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisRevocations(ctx context.Context, cfg config.RedisConfig, retention time.Duration) (*RedisRevocations, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis revocation backend requires REDIS_ADDR")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisRevocationsFromClient(client, retention), nil
}

func NewRedisRevocationsFromClient(client *redis.Client, retention time.Duration) *RedisRevocations {
	return &RedisRevocations{client: client, retention: retention}
}

// RevokeToken uses SET NX so a second revoke does not extend the TTL.
func (r *RedisRevocations) RevokeToken(ctx context.Context, token string) error {
	return r.client.SetNX(ctx, revokedKey(token), "1", r.retention).Err()
}

func (r *RedisRevocations) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisRevocations) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRevocations) Close() error {
	return r.client.Close()
}

func revokedKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return redisRevokedPrefix + base64.RawURLEncoding.EncodeToString(sum[:])
}
