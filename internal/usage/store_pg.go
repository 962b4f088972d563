package usage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
)

const (
	selectUsageForUpdate = `
SELECT plan, limit_amount, used, resets_at FROM usage WHERE user_id = $1 FOR UPDATE`
	insertUsage = `
INSERT INTO usage (user_id, plan, limit_amount, used, resets_at) VALUES ($1, $2, $3, $4, $5)`
	updateUsed   = `UPDATE usage SET used = $1 WHERE user_id = $2`
	updateWindow = `UPDATE usage SET used = $1, resets_at = $2 WHERE user_id = $3`
	upsertReset  = `
INSERT INTO usage (user_id, plan, limit_amount, used, resets_at)
VALUES ($1, $2, $3, 0, $4)
ON CONFLICT (user_id) DO UPDATE SET used = 0, resets_at = EXCLUDED.resets_at`
	absorbUsed  = `UPDATE usage SET used = LEAST(limit_amount, used + $1) WHERE user_id = $2`
	deleteUsage = `DELETE FROM usage WHERE user_id = $1`
)

// PGStore keeps one usage row per principal, locked with SELECT ... FOR UPDATE.
type PGStore struct {
	db    *sql.DB
	quota Quota
	now   func() time.Time
}

// NewPGStore constructs a Postgres-backed usage store.
func NewPGStore(db *sql.DB, limit int) *PGStore {
	return &PGStore{db: db, quota: NewQuota(limit), now: time.Now}
}

// inTx commits when fn succeeds and rolls back otherwise.
func (s *PGStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "usage: begin")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return pkgerrors.Wrap(tx.Commit(), "usage: commit")
}

func (s *PGStore) Current(ctx context.Context, principal string) (u Usage, err error) {
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		u, err = s.lock(ctx, tx, principal)
		return err
	})
	return u, err
}

func (s *PGStore) Consume(ctx context.Context, principal string, n int) (u Usage, err error) {
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if u, err = s.lock(ctx, tx, principal); err != nil {
			return err
		}
		if !u.allows(n) {
			return ErrLimitReached
		}
		if n <= 0 {
			return nil
		}
		u.Used += n
		_, err = tx.ExecContext(ctx, updateUsed, u.Used, principal)
		return err
	})
	if err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *PGStore) Refund(ctx context.Context, principal string, n int) (u Usage, err error) {
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if u, err = s.lock(ctx, tx, principal); err != nil {
			return err
		}
		refunded := u.refund(n)
		if refunded.Used == u.Used {
			return nil
		}
		u = refunded
		_, err = tx.ExecContext(ctx, updateUsed, u.Used, principal)
		return err
	})
	if err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *PGStore) Reset(ctx context.Context, principal string) (Usage, error) {
	u := s.quota.open(s.now())
	if _, err := s.db.ExecContext(ctx, upsertReset, principal, u.Plan, u.Limit, u.ResetsAt); err != nil {
		return Usage{}, pkgerrors.Wrap(err, "usage: reset")
	}
	return u, nil
}

func (s *PGStore) Transfer(ctx context.Context, from, to string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		guest, err := s.lock(ctx, tx, from)
		if err != nil {
			return err
		}
		if _, err := s.lock(ctx, tx, to); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, absorbUsed, guest.Used, to); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, deleteUsage, from)
		return err
	})
}

// lock reads the principal's row FOR UPDATE, inserting a fresh one or
// rolling an elapsed window as needed.
func (s *PGStore) lock(ctx context.Context, tx *sql.Tx, principal string) (Usage, error) {
	now := s.now()
	var u Usage
	err := tx.QueryRowContext(ctx, selectUsageForUpdate, principal).Scan(&u.Plan, &u.Limit, &u.Used, &u.ResetsAt)
	if errors.Is(err, sql.ErrNoRows) {
		u = s.quota.open(now)
		_, err = tx.ExecContext(ctx, insertUsage, principal, u.Plan, u.Limit, u.Used, u.ResetsAt)
		return u, err
	}
	if err != nil {
		return Usage{}, err
	}
	if rolled, changed := s.quota.roll(u, now); changed {
		if _, err := tx.ExecContext(ctx, updateWindow, rolled.Used, rolled.ResetsAt, principal); err != nil {
			return Usage{}, err
		}
		u = rolled
	}
	return u, nil
}

var (
	_ Store = (*PGStore)(nil)
	_ Store = (*memoryStore)(nil)
)
