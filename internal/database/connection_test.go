package database

import (
	"context"
	"testing"

	"github.com/sbpickleball/match_app/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedRegions_Idempotent(t *testing.T) {
	store, _ := memory.NewStore()
	ctx := context.Background()

	require.NoError(t, SeedRegions(ctx, store.Regions, "Jeonju", "Jeonju"))
	require.NoError(t, SeedRegions(ctx, store.Regions, "Jeonju"))

	region, err := store.Regions.GetRegionBySlug(ctx, "jeonju")
	require.NoError(t, err)
	assert.Equal(t, "Jeonju", region.Name)
}

func TestSeedRegions_RejectsUnsluggableName(t *testing.T) {
	store, _ := memory.NewStore()

	err := SeedRegions(context.Background(), store.Regions, "!!!")
	assert.Error(t, err)
}
