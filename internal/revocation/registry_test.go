package revocation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemory_RevokeIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	exp := time.Now().Add(time.Hour)

	ok, err := m.IsRevoked(ctx, "a")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.Revoke(ctx, "a", exp))
	require.NoError(t, m.Revoke(ctx, "a", exp))
	require.NoError(t, m.Revoke(ctx, "a", exp.Add(-time.Minute)))
	require.Equal(t, 1, m.Len())

	ok, err = m.IsRevoked(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.IsRevoked(ctx, "b")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemory_Prune(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, m.Revoke(ctx, "past", now.Add(-time.Second)))
	require.NoError(t, m.Revoke(ctx, "edge", now))
	require.NoError(t, m.Revoke(ctx, "future", now.Add(time.Second)))

	n, err := m.Prune(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	ok, _ := m.IsRevoked(ctx, "future")
	require.True(t, ok)
	ok, _ = m.IsRevoked(ctx, "past")
	require.False(t, ok)

	n, err = m.Prune(ctx, now)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestMemory_ConcurrentRevokeAndCheck(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemory()
	exp := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("tok-%d", i)
			require.NoError(t, m.Revoke(ctx, id, exp))
			ok, err := m.IsRevoked(ctx, id)
			require.NoError(t, err)
			require.True(t, ok, "revoked id must be visible right after Revoke")
		}(i)
	}
	wg.Wait()
	require.Equal(t, 64, m.Len())
}
