package evigraph_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/bioagentic/orchestrator/evigraph"
)

func TestManagerWithRedisCacheReadsThroughAfterCacheClear(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	dir := t.TempDir()
	scope := "redis-scope"
	evigraph.ClearManagerCache(scope, dir)

	cache := evigraph.NewRedisCache(evigraph.RedisCacheOptions{Addr: mr.Addr()})
	m, err := evigraph.GetManager(scope, dir)
	require.NoError(t, err)
	m.WithRedisCache(cache)

	require.NoError(t, m.CreateEntities([]evigraph.EntityInput{
		{Name: "EGFR", EntityType: "gene", Observations: []string{"receptor tyrosine kinase"}},
	}))

	// Remove the on-disk scope file so any successful read can only have
	// come from Redis, then force a reload through the attached cache.
	require.NoError(t, os.Remove(filepath.Join(dir, scope+".json")))

	evigraph.ClearManagerCache(scope, dir)
	m2, err := evigraph.GetManager(scope, dir)
	require.NoError(t, err)
	m2.WithRedisCache(cache)
	require.NoError(t, m2.Reload())

	entities, _ := m2.OpenNodes([]string{"EGFR"})
	require.Len(t, entities, 1)
	require.Equal(t, "gene", entities[0].EntityType)
}
