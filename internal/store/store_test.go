package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKV_TTL(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	kv.now = func() time.Time { return now }

	require.NoError(t, kv.Set(ctx, "k", "v", time.Minute))
	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	now = now.Add(2 * time.Minute)
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryKV_SetNXAndDelIfEqual(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	ok, err := kv.SetNX(ctx, "lock", "a", 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = kv.SetNX(ctx, "lock", "b", 0)
	require.NoError(t, err)
	assert.False(t, ok)

	deleted, err := kv.DelIfEqual(ctx, "lock", "b")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = kv.DelIfEqual(ctx, "lock", "a")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = kv.Get(ctx, "lock")
	assert.True(t, errors.Is(err, ErrMiss))
}

func TestJobCache(t *testing.T) {
	ctx := context.Background()
	cache := NewJobCache(NewMemoryKV(), time.Hour)

	type snapshot struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	require.NoError(t, cache.Put(ctx, "j1", snapshot{JobID: "j1", Status: "completed"}))

	var got snapshot
	require.NoError(t, cache.Get(ctx, "j1", &got))
	assert.Equal(t, "completed", got.Status)

	assert.ErrorIs(t, cache.Get(ctx, "missing", &got), ErrMiss)
}

func TestImportLock(t *testing.T) {
	ctx := context.Background()
	lock := NewImportLock(NewMemoryKV(), time.Minute)

	release, ok, err := lock.Acquire(ctx, "t1", "c1")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = lock.Acquire(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.False(t, ok, "same property is locked")

	other, ok, err := lock.Acquire(ctx, "t1", "c2")
	require.NoError(t, err)
	assert.True(t, ok, "another property is independent")
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	_, ok, err = lock.Acquire(ctx, "t1", "c1")
	require.NoError(t, err)
	assert.True(t, ok)
}
