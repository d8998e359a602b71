package agent

import (
	"chef-agent-api/domain"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "t1")
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "t1")
	assert.ErrorIs(t, err, domain.ErrThreadBusy)

	other, err := l.Acquire(ctx, "t2")
	require.NoError(t, err)
	other()

	release()
	release()
	again, err := l.Acquire(ctx, "t1")
	require.NoError(t, err)
	again()
}

func newRedisLocker(t *testing.T, ttl time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, ttl), mr
}

func TestRedisLocker_SingleHolder(t *testing.T) {
	l, mr := newRedisLocker(t, time.Minute)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("chef:thread-lock:t1"))

	_, err = l.Acquire(ctx, "t1")
	assert.ErrorIs(t, err, domain.ErrThreadBusy)

	release()
	assert.False(t, mr.Exists("chef:thread-lock:t1"))

	release2, err := l.Acquire(ctx, "t1")
	require.NoError(t, err)
	release2()
}

func TestRedisLocker_ExpiredLockIsNotStolenBack(t *testing.T) {
	l, mr := newRedisLocker(t, time.Minute)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "t1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("chef:thread-lock:t1"))

	release2, err := l.Acquire(ctx, "t1")
	require.NoError(t, err)

	// the first holder must not delete the new holder's key
	release()
	assert.True(t, mr.Exists("chef:thread-lock:t1"))
	release2()
	assert.False(t, mr.Exists("chef:thread-lock:t1"))
}

func TestRedisLocker_RefreshesTTL(t *testing.T) {
	l, mr := newRedisLocker(t, 300*time.Millisecond)

	release, err := l.Acquire(context.Background(), "t1")
	require.NoError(t, err)
	defer release()

	mr.SetTTL("chef:thread-lock:t1", 50*time.Millisecond)
	assert.Eventually(t, func() bool {
		return mr.TTL("chef:thread-lock:t1") > 100*time.Millisecond
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRedisLocker_LostLockIsNotRefreshed(t *testing.T) {
	l, mr := newRedisLocker(t, 150*time.Millisecond)

	release, err := l.Acquire(context.Background(), "t1")
	require.NoError(t, err)
	defer release()

	require.NoError(t, mr.Set("chef:thread-lock:t1", "someone-else"))
	mr.SetTTL("chef:thread-lock:t1", time.Minute)

	assert.Never(t, func() bool {
		return mr.TTL("chef:thread-lock:t1") != time.Minute
	}, 400*time.Millisecond, 20*time.Millisecond)
	got, err := mr.Get("chef:thread-lock:t1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}
