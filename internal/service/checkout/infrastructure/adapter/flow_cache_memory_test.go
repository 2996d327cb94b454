package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront/internal/service/checkout/domain"
)

func TestFlowCacheMemoryAdapter(t *testing.T) {
	cache := NewFlowCacheMemoryAdapter(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "default")
	require.NoError(t, err)
	assert.False(t, ok)

	flow := domain.DefaultFlow()
	require.NoError(t, cache.Set(ctx, "default", &flow))
	flow.Name = "mutated after set"

	got, ok, err := cache.Get(ctx, "default")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Default Checkout", got.Name)

	now = now.Add(2 * time.Minute)
	_, ok, _ = cache.Get(ctx, "default")
	assert.False(t, ok, "expired")

	require.NoError(t, cache.Set(ctx, "default", &flow))
	require.NoError(t, cache.Delete(ctx, "default", "other"))
	_, ok, _ = cache.Get(ctx, "default")
	assert.False(t, ok)
}
