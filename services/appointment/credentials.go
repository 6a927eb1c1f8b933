package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenKeyPrefix is the fixed key under which the appointment-system bearer
// token is stored per user. The token is written exclusively by the login
// sub-flow; this package only ever reads it.
const TokenKeyPrefix = "appointment:token:"

// CredentialStore exposes read-only access to the appointment-system bearer
// token for a user. An empty token with a nil error means "not logged in".
type CredentialStore interface {
	Token(ctx context.Context, userID string) (string, error)
}

// RedisCredentialStore reads bearer tokens from Redis.
type RedisCredentialStore struct {
	client *redis.Client
}

// NewRedisCredentialStore returns a CredentialStore backed by Redis.
func NewRedisCredentialStore(client *redis.Client) *RedisCredentialStore {
	return &RedisCredentialStore{client: client}
}

func (s *RedisCredentialStore) Token(ctx context.Context, userID string) (string, error) {
	token, err := s.client.Get(ctx, TokenKeyPrefix+userID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read appointment token: %w", err)
	}
	return token, nil
}

// StoreToken saves a token obtained by the login sub-flow. It lives here so
// the key format stays in one place, but the gateway never calls it.
func (s *RedisCredentialStore) StoreToken(ctx context.Context, userID, token string, ttl time.Duration) error {
	return s.client.Set(ctx, TokenKeyPrefix+userID, token, ttl).Err()
}
