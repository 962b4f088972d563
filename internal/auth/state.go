package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateStore keeps OAuth state values between the login redirect and the
// callback. Consume succeeds at most once per state.
type StateStore interface {
	Put(ctx context.Context, state string, ttl time.Duration) error
	Consume(ctx context.Context, state string) (bool, error)
}

// MemoryStateStore works for a single process.
type MemoryStateStore struct {
	mu    sync.Mutex
	items map[string]time.Time
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{items: make(map[string]time.Time)}
}

func (s *MemoryStateStore) Put(ctx context.Context, state string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, exp := range s.items {
		if now.After(exp) {
			delete(s.items, k)
		}
	}
	s.items[state] = now.Add(ttl)
	return nil
}

func (s *MemoryStateStore) Consume(ctx context.Context, state string) (bool, error) {
	s.mu.Lock()
	exp, ok := s.items[state]
	delete(s.items, state)
	s.mu.Unlock()
	return ok && time.Now().Before(exp), nil
}

// RedisStateStore shares state across API instances, such as Lambda
// invocations that land on different containers.
type RedisStateStore struct {
	Client redis.Cmdable
}

const stateKeyPrefix = "oauth_state:"

func (s RedisStateStore) Put(ctx context.Context, state string, ttl time.Duration) error {
	return s.Client.Set(ctx, stateKeyPrefix+state, 1, ttl).Err()
}

func (s RedisStateStore) Consume(ctx context.Context, state string) (bool, error) {
	n, err := s.Client.Del(ctx, stateKeyPrefix+state).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
