package usage

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryServiceConsumeUntilLimit(t *testing.T) {
	ctx := context.Background()
	svc := NewService(2)

	ok, u, err := svc.CanConsume(ctx, "user-1", 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, u.Remaining())
	assert.Equal(t, starterPlan, u.Plan)

	_, err = svc.Consume(ctx, "user-1", 2)
	require.NoError(t, err)

	ok, u, err = svc.CanConsume(ctx, "user-1", 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, u.Remaining())

	_, err = svc.Consume(ctx, "user-1", 1)
	assert.ErrorIs(t, err, ErrLimitReached)
}

func TestMemoryServiceReset(t *testing.T) {
	ctx := context.Background()
	svc := NewService(DefaultLimit)
	_, err := svc.Consume(ctx, "user-1", 3)
	require.NoError(t, err)

	u, err := svc.Reset(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, u.Used)
	assert.True(t, u.ResetsAt.After(time.Now()))
}

func TestMemoryServiceRefund(t *testing.T) {
	ctx := context.Background()
	svc := NewService(2)
	_, err := svc.Consume(ctx, "user-1", 2)
	require.NoError(t, err)

	u, err := svc.Refund(ctx, "user-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, u.Remaining())

	u, err = svc.Refund(ctx, "user-1", 5)
	require.NoError(t, err)
	assert.Equal(t, 0, u.Used)
}

func TestMemoryServiceConcurrentConsume(t *testing.T) {
	ctx := context.Background()
	svc := NewService(3)

	var (
		wg      sync.WaitGroup
		granted atomic.Int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Consume(ctx, "user-1", 1); err == nil {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), granted.Load())
	u, err := svc.EnsurePeriod(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, u.Used)
}

func TestMemoryServiceTransfer(t *testing.T) {
	ctx := context.Background()
	svc := NewService(5)
	_, err := svc.Consume(ctx, "guest:g", 4)
	require.NoError(t, err)
	_, err = svc.Consume(ctx, "user-1", 3)
	require.NoError(t, err)

	require.NoError(t, svc.Transfer(ctx, "guest:g", "user-1"))

	u, err := svc.EnsurePeriod(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 5, u.Used, "transfer is capped at the limit")

	guest, err := svc.EnsurePeriod(ctx, "guest:g")
	require.NoError(t, err)
	assert.Equal(t, 0, guest.Used)
}

func TestTransferNoop(t *testing.T) {
	svc := NewService(5)
	assert.NoError(t, svc.Transfer(context.Background(), "", "user-1"))
	assert.NoError(t, svc.Transfer(context.Background(), "user-1", "user-1"))
}

func TestNewQuota(t *testing.T) {
	assert.Equal(t, DefaultLimit, NewQuota(0).Limit)
	assert.Equal(t, DefaultLimit, NewQuota(-3).Limit)
	q := NewQuota(4)
	assert.Equal(t, 4, q.Limit)
	assert.Equal(t, starterPlan, q.Plan)
	assert.Equal(t, 7*24*time.Hour, q.Window)
}

func TestMemoryStoreRollsWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	store := newMemoryStore(NewQuota(3), func() time.Time { return now })
	svc := &Service{store: store}

	u, err := svc.Consume(ctx, "user-1", 3)
	require.NoError(t, err)
	assert.Equal(t, now.Add(7*24*time.Hour), u.ResetsAt)
	_, err = svc.Consume(ctx, "user-1", 1)
	require.ErrorIs(t, err, ErrLimitReached)

	now = now.Add(7*24*time.Hour - time.Second)
	ok, _, err := svc.CanConsume(ctx, "user-1", 1)
	require.NoError(t, err)
	assert.False(t, ok, "window has not elapsed yet")

	now = now.Add(time.Second)
	u, err = svc.Consume(ctx, "user-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, u.Used)
	assert.Equal(t, now.Add(7*24*time.Hour), u.ResetsAt)
}

func TestCanConsumeDoesNotConsume(t *testing.T) {
	ctx := context.Background()
	svc := NewService(1)
	for i := 0; i < 3; i++ {
		ok, _, err := svc.CanConsume(ctx, "guest:a", 1)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, u, err := svc.CanConsume(ctx, "guest:a", 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, u.Used)
}

func TestPGStoreTransfer(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewPostgresService(NewPGStore(db, 10))
	future := time.Now().Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT plan, limit_amount, used, resets_at FROM usage").
		WithArgs("guest:g").
		WillReturnRows(sqlmock.NewRows([]string{"plan", "limit_amount", "used", "resets_at"}).AddRow(starterPlan, 10, 4, future))
	mock.ExpectQuery("SELECT plan, limit_amount, used, resets_at FROM usage").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"plan", "limit_amount", "used", "resets_at"}).AddRow(starterPlan, 10, 2, future))
	mock.ExpectExec("UPDATE usage SET used = LEAST").
		WithArgs(4, "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM usage").
		WithArgs("guest:g").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.Transfer(context.Background(), "guest:g", "user-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStoreReset(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewPostgresService(NewPGStore(db, 6))

	mock.ExpectExec("INSERT INTO usage").
		WithArgs("user-1", starterPlan, 6, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u, err := svc.Reset(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 6, u.Remaining())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStoreConsumeCreatesRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewPostgresService(NewPGStore(db, 10))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT plan, limit_amount, used, resets_at FROM usage").
		WithArgs("user-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO usage").
		WithArgs("user-1", starterPlan, 10, 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE usage SET used").
		WithArgs(1, "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	u, err := svc.Consume(context.Background(), "user-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, u.Used)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStoreConsumeLimitReachedRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewPostgresService(NewPGStore(db, 10))

	rows := sqlmock.NewRows([]string{"plan", "limit_amount", "used", "resets_at"}).
		AddRow(starterPlan, 10, 10, time.Now().Add(time.Hour))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT plan, limit_amount, used, resets_at FROM usage").
		WithArgs("user-1").
		WillReturnRows(rows)
	mock.ExpectRollback()

	_, err = svc.Consume(context.Background(), "user-1", 1)
	assert.ErrorIs(t, err, ErrLimitReached)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStoreRefund(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewPostgresService(NewPGStore(db, 10))

	rows := sqlmock.NewRows([]string{"plan", "limit_amount", "used", "resets_at"}).
		AddRow(starterPlan, 10, 4, time.Now().Add(time.Hour))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT plan, limit_amount, used, resets_at FROM usage").
		WithArgs("user-1").
		WillReturnRows(rows)
	mock.ExpectExec("UPDATE usage SET used").
		WithArgs(3, "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	u, err := svc.Refund(context.Background(), "user-1", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, u.Used)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGStoreEnsurePeriodRollsWindow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	svc := NewPostgresService(NewPGStore(db, 10))

	rows := sqlmock.NewRows([]string{"plan", "limit_amount", "used", "resets_at"}).
		AddRow(starterPlan, 10, 7, time.Now().Add(-time.Minute))
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT plan, limit_amount, used, resets_at FROM usage").
		WithArgs("user-1").
		WillReturnRows(rows)
	mock.ExpectExec("UPDATE usage SET used").
		WithArgs(0, sqlmock.AnyArg(), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	u, err := svc.EnsurePeriod(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, u.Used)
	assert.True(t, u.ResetsAt.After(time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUsageHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewService(10)
	_, err := svc.Consume(context.Background(), "guest:g", 3)
	require.NoError(t, err)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userId", "guest:g")
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(router.Group("/api/v1"))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 10.0, body["limit"])
	assert.Equal(t, 3.0, body["used"])
	assert.Equal(t, 7.0, body["remaining"])
	assert.Equal(t, starterPlan, body["plan"])
}
