package service

import (
	"context"
	"testing"

	"ideawalker-core/internal/pkg/logger"
	"ideawalker-core/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestionIndexesOnlyChangedNotes(t *testing.T) {
	f := newProjectFixture(t)
	f.write(t, "notas/Nota_a.md", "solo")
	f.write(t, "notas/Nota_b.md", "solo arenoso")
	f.write(t, "notas/Nota_c.md", "poesia")

	client := &fakeClient{vectors: map[string][]float32{
		"solo":         {1, 0, 0},
		"solo arenoso": {0.95, 0.1, 0},
		"poesia":       {0, 0, 1},
		"solo fértil":  {1, 0, 0.01},
	}}
	cachePath := f.path(".iwcache", "embeddings.json")
	svc := NewSuggestionService(f.repo, client, embedding.NewCache(cachePath), logger.NewNopLogger())
	ctx := context.Background()

	n, err := svc.IndexProject(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.FileExists(t, cachePath)

	n, err = svc.IndexProject(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 3, client.embeds)

	suggestions, err := svc.Suggest(ctx, "Nota_a.md", "solo")
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Nota_b.md", suggestions[0].TargetID)
	assert.Equal(t, 3, client.embeds, "cached vector reused")

	suggestions, err = svc.Suggest(ctx, "rascunho", "solo fértil")
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, "Nota_a.md", suggestions[0].TargetID)
	assert.Equal(t, "Nota_b.md", suggestions[1].TargetID)

	reloaded := embedding.NewCache(cachePath)
	require.NoError(t, reloaded.Load())
	assert.Len(t, reloaded.All(), 4)
	require.NoError(t, svc.Shutdown())
}

func TestSuggestWithoutEmbeddingReturnsNothing(t *testing.T) {
	f := newProjectFixture(t)
	svc := NewSuggestionService(f.repo, &fakeClient{}, embedding.NewCache(f.path("emb.json")), logger.NewNopLogger())

	suggestions, err := svc.Suggest(context.Background(), "x", "desconhecido")

	require.NoError(t, err)
	assert.Empty(t, suggestions)
}
