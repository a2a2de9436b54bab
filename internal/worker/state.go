package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	stateKeyPrefix = "delivery_job:"
	stateTTL       = 24 * time.Hour
)

type RedisStateStore struct {
	client redis.UniversalClient
}

func NewRedisStateStore(client redis.UniversalClient) *RedisStateStore {
	return &RedisStateStore{client: client}
}

func (s *RedisStateStore) Put(ctx context.Context, state JobState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, stateKeyPrefix+state.ID, raw, stateTTL).Err()
}

func (s *RedisStateStore) Get(ctx context.Context, id string) (*JobState, error) {
	raw, err := s.client.Get(ctx, stateKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}

		return nil, err
	}

	var state JobState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

// MemoryStateStore keeps job state in process memory.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[string]JobState
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]JobState)}
}

func (s *MemoryStateStore) Put(_ context.Context, state JobState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state.ID] = state

	return nil
}

func (s *MemoryStateStore) Get(_ context.Context, id string) (*JobState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[id]
	if !ok {
		return nil, ErrJobNotFound
	}

	return &state, nil
}
