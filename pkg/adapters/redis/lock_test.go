package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	backend "github.com/redis/go-redis/v9"
)

func newTestLocker(t *testing.T) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLocker(client, ""), mr
}

func TestLocker_AcquireAndRelease(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "sid", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("lang2query:session:lock:sid"))

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("lang2query:session:lock:sid"))
}

func TestLocker_SecondAcquireBlocksUntilRelease(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "sid", 30*time.Second)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		second, err := locker.Lock(ctx, "sid", 30*time.Second)
		assert.NoError(t, err)
		close(acquired)
		_ = second(ctx)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first still held")
	case <-time.After(150 * time.Millisecond):
	}

	require.NoError(t, unlock(ctx))

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second lock never acquired after release")
	}
}

func TestLocker_ContextCancellationAborts(t *testing.T) {
	locker, _ := newTestLocker(t)

	unlock, err := locker.Lock(context.Background(), "sid", 30*time.Second)
	require.NoError(t, err)
	defer func() { _ = unlock(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err = locker.Lock(ctx, "sid", 30*time.Second)
	assert.ErrorIs(t, err, ErrLockAcquire)
}

func TestLocker_StaleHolderCannotRelease(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "sid", time.Second)
	require.NoError(t, err)

	// Lock expires and another process grabs it.
	mr.FastForward(2 * time.Second)
	fresh, err := locker.Lock(ctx, "sid", 30*time.Second)
	require.NoError(t, err)

	// The stale unlock must not delete the new holder's lock.
	require.NoError(t, unlock(ctx))
	assert.True(t, mr.Exists("lang2query:session:lock:sid"))

	require.NoError(t, fresh(ctx))
	assert.False(t, mr.Exists("lang2query:session:lock:sid"))
}
