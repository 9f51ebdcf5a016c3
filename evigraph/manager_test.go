package evigraph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bioagentic/orchestrator/evigraph"
)

func freshManager(t *testing.T) *evigraph.Manager {
	t.Helper()
	dir := t.TempDir()
	scope := "scope-" + t.Name()
	evigraph.ClearManagerCache(scope, dir)
	m, err := evigraph.GetManager(scope, dir)
	require.NoError(t, err)
	return m
}

func TestCreateEntitiesUpsertsByName(t *testing.T) {
	m := freshManager(t)
	require.NoError(t, m.CreateEntities([]evigraph.EntityInput{
		{Name: "BRCA1", EntityType: "gene", Observations: []string{"tumor suppressor"}},
	}))
	require.NoError(t, m.CreateEntities([]evigraph.EntityInput{
		{Name: "BRCA1", EntityType: "gene", Observations: []string{"tumor suppressor", "DNA repair"}},
	}))

	entities, _ := m.OpenNodes([]string{"BRCA1"})
	require.Len(t, entities, 1)
	require.Equal(t, []string{"tumor suppressor", "DNA repair"}, entities[0].Observations)
}

func TestCreateRelationsCreatesEndpointsOnDemand(t *testing.T) {
	m := freshManager(t)
	require.NoError(t, m.CreateRelations([]evigraph.Relation{
		{From: "BRCA1", To: "breast cancer", Type: "associated_with"},
	}))

	entities, relations := m.OpenNodes([]string{"BRCA1", "breast cancer"})
	require.Len(t, entities, 2)
	require.Len(t, relations, 1)
}

func TestCreateRelationsDedupesByTriple(t *testing.T) {
	m := freshManager(t)
	rel := evigraph.Relation{From: "a", To: "b", Type: "links"}
	require.NoError(t, m.CreateRelations([]evigraph.Relation{rel}))
	require.NoError(t, m.CreateRelations([]evigraph.Relation{rel}))

	_, relations := m.OpenNodes([]string{"a"})
	require.Len(t, relations, 1)
}

func TestAddObservationsCreatesMissingEntity(t *testing.T) {
	m := freshManager(t)
	require.NoError(t, m.AddObservations([]evigraph.ObservationInput{
		{EntityName: "TP53", Contents: []string{"tumor suppressor"}},
	}))
	entities, _ := m.OpenNodes([]string{"TP53"})
	require.Len(t, entities, 1)
	require.Equal(t, []string{"tumor suppressor"}, entities[0].Observations)
}

func TestSearchNodesRanksByMatchCount(t *testing.T) {
	m := freshManager(t)
	require.NoError(t, m.CreateEntities([]evigraph.EntityInput{
		{Name: "aspirin", EntityType: "drug", Observations: []string{"anti-inflammatory", "aspirin resistance"}},
		{Name: "ibuprofen", EntityType: "drug", Observations: []string{"anti-inflammatory"}},
	}))
	results := m.SearchNodes("aspirin", 10)
	require.NotEmpty(t, results)
	require.Equal(t, "aspirin", results[0].Entity.Name)
}

func TestManagerCacheSharesStateAcrossGetManagerCalls(t *testing.T) {
	dir := t.TempDir()
	scope := "shared"
	evigraph.ClearManagerCache(scope, dir)

	m1, err := evigraph.GetManager(scope, dir)
	require.NoError(t, err)
	require.NoError(t, m1.CreateEntities([]evigraph.EntityInput{{Name: "x", EntityType: "t"}}))

	m2, err := evigraph.GetManager(scope, dir)
	require.NoError(t, err)
	entities, _ := m2.OpenNodes([]string{"x"})
	require.Len(t, entities, 1)
}

func TestClearManagerCacheReloadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	scope := "reload"
	evigraph.ClearManagerCache(scope, dir)

	m1, err := evigraph.GetManager(scope, dir)
	require.NoError(t, err)
	require.NoError(t, m1.CreateEntities([]evigraph.EntityInput{{Name: "y", EntityType: "t"}}))

	evigraph.ClearManagerCache(scope, dir)
	m2, err := evigraph.GetManager(scope, dir)
	require.NoError(t, err)
	entities, _ := m2.OpenNodes([]string{"y"})
	require.Len(t, entities, 1)
}

func TestAddToGraphAbortsEntirelyOnOneInvalidEntry(t *testing.T) {
	m := freshManager(t)
	result := m.AddToGraph(map[string]any{
		"entities": []any{"not-a-map", map[string]any{"name": "ok", "entity_type": "gene"}},
	})
	require.False(t, result.Success)
	require.NotEmpty(t, result.Error)
	require.Zero(t, result.EntitiesCreated)

	entities, _ := m.OpenNodes([]string{"ok"})
	require.Empty(t, entities, "a valid entry alongside an invalid one must not be created")
}

func TestAddToGraphFailsCleanlyOnAllGarbageInput(t *testing.T) {
	m := freshManager(t)
	result := m.AddToGraph(map[string]any{
		"entities": []any{42, true, "nope"},
	})
	require.False(t, result.Success)
	require.NotEmpty(t, result.Error)
}

func TestAddToGraphSucceedsWhenEveryEntryIsValid(t *testing.T) {
	m := freshManager(t)
	result := m.AddToGraph(map[string]any{
		"entities": []any{map[string]any{"name": "BRCA1", "entity_type": "gene"}},
		"relations": []any{map[string]any{"from": "BRCA1", "to": "breast cancer", "type": "associated_with"}},
	})
	require.True(t, result.Success)
	require.Equal(t, 1, result.EntitiesCreated)
	require.Equal(t, 1, result.RelationsAdded)
}
