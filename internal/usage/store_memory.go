package usage

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu    sync.Mutex
	quota Quota
	now   func() time.Time
	rows  map[string]Usage
}

func newMemoryStore(q Quota, now func() time.Time) *memoryStore {
	return &memoryStore{quota: q, now: now, rows: make(map[string]Usage)}
}

// update runs fn on the principal's rolled row under the lock and stores
// the result unless fn fails.
func (s *memoryStore) update(ctx context.Context, principal string, fn func(Usage) (Usage, error)) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := fn(s.row(principal))
	if err != nil {
		return Usage{}, err
	}
	s.rows[principal] = u
	return u, nil
}

// row must be called with mu held.
func (s *memoryStore) row(principal string) Usage {
	now := s.now()
	u, ok := s.rows[principal]
	if !ok {
		return s.quota.open(now)
	}
	u, _ = s.quota.roll(u, now)
	return u
}

func (s *memoryStore) Current(ctx context.Context, principal string) (Usage, error) {
	return s.update(ctx, principal, func(u Usage) (Usage, error) { return u, nil })
}

func (s *memoryStore) Consume(ctx context.Context, principal string, n int) (Usage, error) {
	return s.update(ctx, principal, func(u Usage) (Usage, error) {
		if !u.allows(n) {
			return Usage{}, ErrLimitReached
		}
		if n > 0 {
			u.Used += n
		}
		return u, nil
	})
}

func (s *memoryStore) Refund(ctx context.Context, principal string, n int) (Usage, error) {
	return s.update(ctx, principal, func(u Usage) (Usage, error) {
		return u.refund(n), nil
	})
}

func (s *memoryStore) Reset(ctx context.Context, principal string) (Usage, error) {
	return s.update(ctx, principal, func(u Usage) (Usage, error) {
		u.Used = 0
		u.ResetsAt = s.now().UTC().Add(s.quota.Window)
		return u, nil
	})
}

func (s *memoryStore) Transfer(ctx context.Context, from, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[to] = s.row(to).absorb(s.row(from))
	delete(s.rows, from)
	return nil
}
