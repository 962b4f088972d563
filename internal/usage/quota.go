package usage

import (
	"errors"
	"time"
)

const (
	// DefaultLimit is the weekly advisory allowance when none is configured.
	DefaultLimit = 10

	starterPlan   = "Starter"
	defaultWindow = 7 * 24 * time.Hour
)

// ErrLimitReached indicates the principal used up the advisory quota.
var ErrLimitReached = errors.New("advisory limit reached")

// Quota is the advisory allowance granted to every principal per window.
type Quota struct {
	Plan   string
	Limit  int
	Window time.Duration
}

// NewQuota returns the Starter quota. Non-positive limits use DefaultLimit.
func NewQuota(limit int) Quota {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return Quota{Plan: starterPlan, Limit: limit, Window: defaultWindow}
}

func (q Quota) open(now time.Time) Usage {
	return Usage{Plan: q.Plan, Limit: q.Limit, ResetsAt: now.UTC().Add(q.Window)}
}

// roll starts a fresh window once u's has elapsed and reports whether it did.
func (q Quota) roll(u Usage, now time.Time) (Usage, bool) {
	if now.Before(u.ResetsAt) {
		return u, false
	}
	u.Used = 0
	u.ResetsAt = now.UTC().Add(q.Window)
	return u, true
}
