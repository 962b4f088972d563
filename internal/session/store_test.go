package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := Record(ctx, store, "guest:a", entry(60))
	require.NoError(t, err)
	h, err := Record(ctx, store, "guest:a", entry(80))
	require.NoError(t, err)
	assert.Equal(t, 2, h.Len())

	other, err := store.Load(ctx, "guest:b")
	require.NoError(t, err)
	assert.Equal(t, 0, other.Len())
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := RedisStore{Client: rdb, TTL: time.Hour}
	ctx := context.Background()
	for _, score := range []int{40, 85, 62} {
		_, err := Record(ctx, store, "user:1", entry(score))
		require.NoError(t, err)
	}

	h, err := store.Load(ctx, "user:1")
	require.NoError(t, err)
	assert.Equal(t, Stats{Count: 3, Average: 62, Best: 85}, h.Stats())
	assert.Equal(t, 62, h.Entries()[0].Overall)
	assert.Equal(t, time.Hour, mr.TTL(keyPrefix+"user:1"))
}

func TestRedisStoreLoadError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet(keyPrefix + "user:1").SetErr(errors.New("connection refused"))

	_, err := RedisStore{Client: db}.Load(context.Background(), "user:1")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreConcurrentRecordKeepsEveryEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), PoolSize: 10})
	t.Cleanup(func() { _ = rdb.Close() })

	store := RedisStore{Client: rdb, TTL: time.Hour}
	recordConcurrently(t, store, MaxEntries)

	h, err := store.Load(context.Background(), "user:1")
	require.NoError(t, err)
	assert.Equal(t, MaxEntries, h.Len())
	assert.Equal(t, time.Hour, mr.TTL(keyPrefix+"user:1"))
}

func TestMemoryStoreConcurrentRecordKeepsEveryEntry(t *testing.T) {
	store := NewMemoryStore()
	recordConcurrently(t, store, MaxEntries)

	h, err := store.Load(context.Background(), "user:1")
	require.NoError(t, err)
	assert.Equal(t, MaxEntries, h.Len())
}

func TestTakeEmptiesHistory(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := RedisStore{Client: rdb}
	ctx := context.Background()
	_, err := Record(ctx, store, "guest:g", entry(55))
	require.NoError(t, err)

	taken, err := Take(ctx, store, "guest:g")
	require.NoError(t, err)
	assert.Equal(t, 1, taken.Len())

	left, err := store.Load(ctx, "guest:g")
	require.NoError(t, err)
	assert.Equal(t, 0, left.Len())
}

func recordConcurrently(t *testing.T, store Store, n int) {
	t.Helper()
	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			_, err := Record(context.Background(), store, "user:1", entry(score))
			assert.NoError(t, err)
		}(i * 10)
	}
	wg.Wait()
}

func TestRedisStoreMissingIsEmpty(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet(keyPrefix + "guest:x").RedisNil()

	h, err := RedisStore{Client: db}.Load(context.Background(), "guest:x")
	require.NoError(t, err)
	assert.Equal(t, 0, h.Len())
}
