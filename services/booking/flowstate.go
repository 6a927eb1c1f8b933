// File: services/booking/flowstate.go
package booking

import (
	"context"
	"encoding/json"
	"time"

	"medichat/models"

	"github.com/go-redis/redis/v8"
)

const flowStatePrefix = "booking:flow:"

// FlowStore persists the transient per-consultation booking flow state
// between chat turns. A missing entry hydrates to a fresh idle state.
type FlowStore interface {
	Get(ctx context.Context, consultationID string) (*models.BookingFlowState, error)
	Set(ctx context.Context, consultationID string, state *models.BookingFlowState) error
	// Claim writes state only if no flow exists for the consultation,
	// reporting whether the write happened. Starting a flow goes through
	// Claim so two concurrent starts cannot both pass the active-flow check.
	Claim(ctx context.Context, consultationID string, state *models.BookingFlowState) (bool, error)
	Clear(ctx context.Context, consultationID string) error
}

// RedisFlowStore keeps flow state in Redis with a TTL so abandoned flows
// expire on their own.
type RedisFlowStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisFlowStore returns a FlowStore backed by Redis.
func NewRedisFlowStore(client *redis.Client, ttl time.Duration) *RedisFlowStore {
	return &RedisFlowStore{client: client, ttl: ttl}
}

func (s *RedisFlowStore) Get(ctx context.Context, consultationID string) (*models.BookingFlowState, error) {
	data, err := s.client.Get(ctx, flowStatePrefix+consultationID).Result()
	if err == redis.Nil {
		return models.NewBookingFlowState(), nil
	}
	if err != nil {
		return nil, err
	}
	var state models.BookingFlowState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *RedisFlowStore) Set(ctx context.Context, consultationID string, state *models.BookingFlowState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, flowStatePrefix+consultationID, b, s.ttl).Err()
}

func (s *RedisFlowStore) Claim(ctx context.Context, consultationID string, state *models.BookingFlowState) (bool, error) {
	b, err := json.Marshal(state)
	if err != nil {
		return false, err
	}
	return s.client.SetNX(ctx, flowStatePrefix+consultationID, b, s.ttl).Result()
}

func (s *RedisFlowStore) Clear(ctx context.Context, consultationID string) error {
	return s.client.Del(ctx, flowStatePrefix+consultationID).Err()
}
