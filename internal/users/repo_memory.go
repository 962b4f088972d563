package users

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is used by dev and tests when Postgres is not configured.
type MemoryRepo struct {
	mu    sync.RWMutex
	users map[string]User
	now   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[string]User), now: time.Now}
}

func (r *MemoryRepo) Upsert(ctx context.Context, user User) (User, bool, error) {
	if err := ctx.Err(); err != nil {
		return User{}, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	existing, ok := r.users[user.ID]
	user.CreatedAt = now
	if ok {
		user.CreatedAt = existing.CreatedAt
		if user.FullName == "" {
			user.FullName = existing.FullName
		}
		if user.PictureURL == "" {
			user.PictureURL = existing.PictureURL
		}
	}
	user.LastLoginAt = now
	r.users[user.ID] = user
	return user, !ok, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if user, ok := r.users[userID]; ok {
		return user, nil
	}
	return User{}, ErrNotFound
}
