package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalAllowsBurstThenRefuses(t *testing.T) {
	l := NewLocal(1, 2)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "signin:10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := l.Allow(ctx, "signin:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Second, res.RetryAfter)

	other, err := l.Allow(ctx, "signin:10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	now = now.Add(time.Second)
	res, err = l.Allow(ctx, "signin:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLocalDropsIdleBuckets(t *testing.T) {
	l := NewLocal(1, 2)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	_, err := l.Allow(context.Background(), "a")
	require.NoError(t, err)
	now = now.Add(time.Minute)
	_, err = l.Allow(context.Background(), "b")
	require.NoError(t, err)

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.buckets, 1)
}

func TestLocalRejectsEmptyKey(t *testing.T) {
	_, err := NewLocal(1, 1).Allow(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestBucketTTL(t *testing.T) {
	assert.Equal(t, 10*time.Second, bucketTTL(1, 5))
	assert.Equal(t, time.Second, bucketTTL(0, 5))
}
