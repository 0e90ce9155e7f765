package cache

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civilog/civilog-cli/internal/client/kvstore"
	"github.com/civilog/civilog-cli/internal/client/models"
)

func TestCache_SetThenGet(t *testing.T) {
	c := New(kvstore.NewMemory())
	ctx := context.Background()

	projects := []models.Project{{ID: "p1", Name: "Torre Norte"}}
	require.NoError(t, Set(ctx, c, KeyProjects, projects))

	got, ok := Get[[]models.Project](ctx, c, KeyProjects)
	require.True(t, ok)
	assert.Equal(t, projects, got)
}

func TestCache_MissOnAbsentKey(t *testing.T) {
	c := New(kvstore.NewMemory())

	_, ok := Get[[]models.Project](context.Background(), c, KeyProjects)
	assert.False(t, ok)
}

func TestCache_MissOnCorruptPayload(t *testing.T) {
	kv := kvstore.NewMemory()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, KeyUnitTypes, []byte("][ not json")))

	c := New(kv)
	_, ok := Get[[]models.UnitType](ctx, c, KeyUnitTypes)
	assert.False(t, ok)
}

func TestCache_EnvelopeCarriesTimestamp(t *testing.T) {
	kv := kvstore.NewMemory()
	c := New(kv)
	ctx := context.Background()

	require.NoError(t, Set(ctx, c, KeyProjects, []models.Project{}))

	raw, err := kv.Get(ctx, KeyProjects)
	require.NoError(t, err)

	var env Envelope[[]models.Project]
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.NotZero(t, env.UpdatedAt)
}

func TestCache_ElementsKeyedPerProject(t *testing.T) {
	c := New(kvstore.NewMemory())
	ctx := context.Background()

	el := &models.Elements{Partidas: []models.Element{{ID: "a", Name: "A"}}}
	require.NoError(t, Set(ctx, c, KeyElements("p1"), el))

	_, ok := Get[*models.Elements](ctx, c, KeyElements("p2"))
	assert.False(t, ok)

	got, ok := Get[*models.Elements](ctx, c, KeyElements("p1"))
	require.True(t, ok)
	assert.Equal(t, el, got)
}
