// File: services/intelligence/contextStore.go
package ai

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

const aiContextPrefix = "ai:ctx:"

// maxContextTurns bounds how much recent conversation is replayed into the
// prompt on each turn.
const maxContextTurns = 6

// ChatTurn is one prior exchange kept for prompt context.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RedisContextStore keeps a short rolling window of recent chat turns per
// consultation so the model sees continuity without replaying the whole
// transcript.
type RedisContextStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisContextStore(client *redis.Client, ttl time.Duration) *RedisContextStore {
	return &RedisContextStore{client: client, ttl: ttl}
}

func (s *RedisContextStore) Get(ctx context.Context, consultationID string) ([]ChatTurn, error) {
	key := aiContextPrefix + consultationID
	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var turns []ChatTurn
	if err := json.Unmarshal([]byte(data), &turns); err != nil {
		return nil, err
	}
	return turns, nil
}

// Append adds turns to the window, trimming it to the most recent
// maxContextTurns entries.
func (s *RedisContextStore) Append(ctx context.Context, consultationID string, turns ...ChatTurn) error {
	existing, err := s.Get(ctx, consultationID)
	if err != nil {
		return err
	}
	existing = append(existing, turns...)
	if len(existing) > maxContextTurns {
		existing = existing[len(existing)-maxContextTurns:]
	}
	b, err := json.Marshal(existing)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, aiContextPrefix+consultationID, b, s.ttl).Err()
}

func (s *RedisContextStore) Clear(ctx context.Context, consultationID string) error {
	return s.client.Del(ctx, aiContextPrefix+consultationID).Err()
}
