package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
)

func TestMutex_Lock_Unlock(t *testing.T) {
	client, mr := newTestClient(t)
	factory := NewLockFactory(client, logging.NewNopLogger())
	ctx := context.Background()

	lock := factory.NewMutex("test-lock", WithLockTTL(time.Second))
	require.NoError(t, lock.Lock(ctx))
	assert.True(t, mr.Exists("rf:lock:test-lock"))

	ttl, err := lock.TTL(ctx)
	require.NoError(t, err)
	assert.Positive(t, ttl)

	require.NoError(t, lock.Unlock(ctx))
	assert.False(t, mr.Exists("rf:lock:test-lock"))
}

func TestMutex_Contention(t *testing.T) {
	client, _ := newTestClient(t)
	factory := NewLockFactory(client, nil)
	ctx := context.Background()

	lock1 := factory.NewMutex("shared", WithRetryCount(1), WithRetryDelay(10*time.Millisecond))
	lock2 := factory.NewMutex("shared", WithRetryCount(2), WithRetryDelay(10*time.Millisecond))

	require.NoError(t, lock1.Lock(ctx))
	assert.Equal(t, ErrLockNotAcquired, lock2.Lock(ctx))

	ok, err := lock2.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, ErrLockNotHeld, lock2.Unlock(ctx), "only the owner may release")

	require.NoError(t, lock1.Unlock(ctx))
	assert.NoError(t, lock2.Lock(ctx))
}

func TestMutex_Extend(t *testing.T) {
	client, mr := newTestClient(t)
	factory := NewLockFactory(client, nil)
	ctx := context.Background()

	lock := factory.NewMutex("ext", WithLockTTL(time.Second))
	require.NoError(t, lock.Lock(ctx))

	ok, err := lock.Extend(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Greater(t, mr.TTL("rf:lock:ext"), 30*time.Second)

	mr.FastForward(2 * time.Minute)
	ok, err = lock.Extend(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "expired lock cannot be extended")
}

func TestMutex_LockHonoursContext(t *testing.T) {
	client, _ := newTestClient(t)
	factory := NewLockFactory(client, nil)

	holder := factory.NewMutex("ctx")
	require.NoError(t, holder.Lock(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	waiter := factory.NewMutex("ctx", WithRetryDelay(time.Second))
	assert.ErrorIs(t, waiter.Lock(ctx), context.Canceled)
}

func TestPersonLock(t *testing.T) {
	client, mr := newTestClient(t)
	factory := NewLockFactory(client, nil)
	ctx := context.Background()

	first := factory.PersonLock("p-1", 3*time.Second)
	second := factory.PersonLock("p-1", 3*time.Second)
	other := factory.PersonLock("p-2", 0)

	ok, err := first.TryLock(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("rf:lock:reassess:p-1"))

	ok, err = second.TryLock(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = other.TryLock(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, first.Unlock(ctx))
	require.NoError(t, other.Unlock(ctx))
}

//Personal.AI order the ending
