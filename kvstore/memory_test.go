package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetSetRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "v", 0))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreIncrCreatesWithTTLOnlyOnce(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	n, err := s.Incr(ctx, "pending", 1, 50*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = s.Incr(ctx, "pending", 1, time.Hour)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	time.Sleep(60 * time.Millisecond)
	_, ok, err := s.Get(ctx, "pending")
	require.NoError(t, err)
	require.False(t, ok, "second Incr call must not have reset the original TTL")
}

func TestMemoryStoreDel(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", 0))
	require.NoError(t, s.Del(ctx, "k"))

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}
