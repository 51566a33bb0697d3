package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokenCache_SetAndGet(t *testing.T) {
	c := NewMemoryTokenCache()
	ctx := context.Background()

	err := c.Set(ctx, "bank", "tok-123", time.Now().Add(time.Hour))
	require.NoError(t, err)

	token, ok, err := c.Get(ctx, "bank")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-123", token)
}

func TestMemoryTokenCache_Miss(t *testing.T) {
	c := NewMemoryTokenCache()

	_, ok, err := c.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryTokenCache_ExpiredTokenNotReturned(t *testing.T) {
	c := NewMemoryTokenCache()
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "bank", "tok-old", now.Add(time.Hour)))

	// Advance past expiry
	now = now.Add(2 * time.Hour)

	_, ok, err := c.Get(ctx, "bank")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryTokenCache_SkewTreatedAsExpired(t *testing.T) {
	c := NewMemoryTokenCache()
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }

	// Token nominally valid for 10 more seconds, inside the skew margin
	require.NoError(t, c.Set(ctx, "bank", "tok-almost", now.Add(10*time.Second)))

	_, ok, err := c.Get(ctx, "bank")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryTokenCache_Invalidate(t *testing.T) {
	c := NewMemoryTokenCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "exchange", "tok-x", time.Now().Add(time.Hour)))
	require.NoError(t, c.Invalidate(ctx, "exchange"))

	_, ok, err := c.Get(ctx, "exchange")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryTokenCache_KeysAreIndependent(t *testing.T) {
	c := NewMemoryTokenCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "bank", "tok-a", time.Now().Add(time.Hour)))
	require.NoError(t, c.Set(ctx, "exchange", "tok-b", time.Now().Add(time.Hour)))
	require.NoError(t, c.Invalidate(ctx, "bank"))

	token, ok, err := c.Get(ctx, "exchange")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-b", token)
}
