package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists the view state in Redis under StateKey. State survives
// restarts for as long as the Redis instance does; no TTL is applied.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store on an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Load reads the state key. A missing key or undecodable value yields
// ErrNoState so callers can start from defaults.
func (s *RedisStore) Load(ctx context.Context) (*State, error) {
	raw, err := s.client.Get(ctx, StateKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoState
		}
		return nil, fmt.Errorf("failed to load state from redis: %w", err)
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, ErrNoState
	}
	return &state, nil
}

// Save writes the state key.
func (s *RedisStore) Save(ctx context.Context, state *State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := s.client.Set(ctx, StateKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save state to redis: %w", err)
	}
	return nil
}
