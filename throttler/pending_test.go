package throttler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/garrettmk/broccoli/kvstore"
)

func TestIncrPendingReturnsPreIncrementValue(t *testing.T) {
	store := kvstore.NewMemoryStore()
	th := New(store, nil, 0)
	ctx := context.Background()

	pre, err := th.incrPending(ctx, "GetServiceStatus")
	require.NoError(t, err)
	require.Equal(t, 0, pre)

	pre, err = th.incrPending(ctx, "GetServiceStatus")
	require.NoError(t, err)
	require.Equal(t, 1, pre)
}

func TestDecrPendingRefreshesTTL(t *testing.T) {
	store := kvstore.NewMemoryStore()
	th := New(store, nil, 100*time.Millisecond)
	ctx := context.Background()

	_, err := th.incrPending(ctx, "GetServiceStatus")
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	require.NoError(t, th.decrPending(ctx, "GetServiceStatus"))
	time.Sleep(60 * time.Millisecond)

	// Without the refresh the key would have expired 100ms after
	// incrPending; decrPending restarted the TTL, so it is still present.

	v, ok, err := store.Get(ctx, pendingKey("GetServiceStatus"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "0", v)
}

func TestNewUsesDefaultPendingTimeoutWhenZero(t *testing.T) {
	th := New(kvstore.NewMemoryStore(), nil, 0)
	require.Equal(t, DefaultPendingTimeout, th.pendingTimeout)
}
