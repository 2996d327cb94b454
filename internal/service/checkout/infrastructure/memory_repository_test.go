package infrastructure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront/internal/service/checkout/domain"
)

func TestMemoryFlowRepository_SeededWithDefault(t *testing.T) {
	repo := NewMemoryFlowRepository()
	ctx := context.Background()

	def, err := repo.FindDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultFlow(), *def)

	byID, err := repo.FindByID(ctx, domain.DefaultFlowID)
	require.NoError(t, err)
	assert.Equal(t, def, byID)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrFlowNotFound)
}

func TestMemoryFlowRepository_SaveNewDefault(t *testing.T) {
	repo := NewMemoryFlowRepository()
	ctx := context.Background()

	express := domain.FlowConfig{ID: "express", Name: "Express", IsDefault: true}
	require.NoError(t, repo.Save(ctx, &express))

	def, err := repo.FindDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, "express", def.ID)

	old, err := repo.FindByID(ctx, domain.DefaultFlowID)
	require.NoError(t, err)
	assert.False(t, old.IsDefault)

	flows, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, flows, 2)
	assert.Equal(t, "default", flows[0].ID)
	assert.Equal(t, "express", flows[1].ID)
}

func TestMemoryFlowRepository_IsolatesCallers(t *testing.T) {
	repo := NewMemoryFlowRepository()
	ctx := context.Background()

	f, err := repo.FindByID(ctx, domain.DefaultFlowID)
	require.NoError(t, err)
	f.Steps[0].Label = "mutated"

	again, err := repo.FindByID(ctx, domain.DefaultFlowID)
	require.NoError(t, err)
	assert.Equal(t, "Shipping Address", again.Steps[0].Label)
}

func TestMemoryFlowRepository_FindDefaultWithoutFlag(t *testing.T) {
	repo := NewMemoryFlowRepository()
	ctx := context.Background()

	plain := domain.DefaultFlow()
	plain.IsDefault = false
	require.NoError(t, repo.Save(ctx, &plain))

	def, err := repo.FindDefault(ctx)
	require.NoError(t, err)
	assert.True(t, def.IsDefault, "falls back to the built-in default")
}
