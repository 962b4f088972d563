package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "history:"
	// maxUpdateAttempts bounds optimistic retries when other writers keep
	// touching the same history key.
	maxUpdateAttempts = 50
)

// ErrConflict is returned when an update loses every optimistic retry.
var ErrConflict = errors.New("session: history update conflict")

// Store persists a history per principal. Update applies fn atomically with
// respect to other updates of the same principal.
type Store interface {
	Load(ctx context.Context, principal string) (History, error)
	Update(ctx context.Context, principal string, fn func(History) History) (History, error)
}

// Record appends e to the principal's history.
func Record(ctx context.Context, store Store, principal string, e Entry) (History, error) {
	return store.Update(ctx, principal, func(h History) History {
		return h.Append(e)
	})
}

// Take empties the principal's history and returns what it held.
func Take(ctx context.Context, store Store, principal string) (History, error) {
	var taken History
	_, err := store.Update(ctx, principal, func(h History) History {
		taken = h
		return NewHistory()
	})
	if err != nil {
		return History{}, err
	}
	return taken, nil
}

// RedisStore keeps histories as JSON values that expire after TTL. Updates
// use WATCH/MULTI and retry when the key changes underneath them.
type RedisStore struct {
	Client redis.UniversalClient
	TTL    time.Duration
}

func (s RedisStore) Load(ctx context.Context, principal string) (History, error) {
	return load(ctx, s.Client, keyPrefix+principal)
}

func (s RedisStore) Update(ctx context.Context, principal string, fn func(History) History) (History, error) {
	key := keyPrefix + principal
	var next History
	txf := func(tx *redis.Tx) error {
		cur, err := load(ctx, tx, key)
		if err != nil {
			return err
		}
		next = fn(cur)
		data, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.TTL)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.Client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return History{}, err
		}
		return next, nil
	}
	return History{}, ErrConflict
}

func load(ctx context.Context, c redis.Cmdable, key string) (History, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return History{}, nil
	}
	if err != nil {
		return History{}, err
	}
	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return History{}, err
	}
	return h, nil
}

// MemoryStore is used in dev and tests.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]History
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]History)}
}

func (s *MemoryStore) Load(ctx context.Context, principal string) (History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[principal], nil
}

func (s *MemoryStore) Update(ctx context.Context, principal string, fn func(History) History) (History, error) {
	if err := ctx.Err(); err != nil {
		return History{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := fn(s.data[principal])
	s.data[principal] = next
	return next, nil
}

var (
	_ Store = RedisStore{}
	_ Store = (*MemoryStore)(nil)
)
