// Package usage meters advisory runs per principal against a weekly quota.
// Deterministic scoring is never metered.
package usage

import (
	"context"
	"time"
)

// Store persists usage rows. Every method rolls an elapsed window first.
type Store interface {
	Current(ctx context.Context, principal string) (Usage, error)
	Consume(ctx context.Context, principal string, n int) (Usage, error)
	Refund(ctx context.Context, principal string, n int) (Usage, error)
	Reset(ctx context.Context, principal string) (Usage, error)
	Transfer(ctx context.Context, from, to string) error
}

// Service manages advisory quota via an underlying store.
type Service struct {
	store Store
}

// NewService constructs a Service with an in-memory store.
func NewService(limit int) *Service {
	return &Service{store: newMemoryStore(NewQuota(limit), time.Now)}
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(store Store) *Service {
	return &Service{store: store}
}

// EnsurePeriod returns current usage, opening a new window if the last one expired.
func (s *Service) EnsurePeriod(ctx context.Context, principal string) (Usage, error) {
	return s.store.Current(ctx, principal)
}

// CanConsume reports whether the principal has n runs left without consuming them.
func (s *Service) CanConsume(ctx context.Context, principal string, n int) (bool, Usage, error) {
	u, err := s.store.Current(ctx, principal)
	if err != nil {
		return false, Usage{}, err
	}
	return u.allows(n), u, nil
}

// Consume records n runs, or returns ErrLimitReached without changing anything.
func (s *Service) Consume(ctx context.Context, principal string, n int) (Usage, error) {
	return s.store.Consume(ctx, principal, n)
}

// Refund gives back n runs taken by Consume. Used never drops below zero.
func (s *Service) Refund(ctx context.Context, principal string, n int) (Usage, error) {
	return s.store.Refund(ctx, principal, n)
}

// Reset zeroes usage and restarts the window.
func (s *Service) Reset(ctx context.Context, principal string) (Usage, error) {
	return s.store.Reset(ctx, principal)
}

// Transfer folds a guest's consumption into the account that claimed it.
func (s *Service) Transfer(ctx context.Context, from, to string) error {
	if from == "" || to == "" || from == to {
		return nil
	}
	return s.store.Transfer(ctx, from, to)
}
