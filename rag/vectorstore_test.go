package rag

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// axisEmbedder maps known words onto unit axes so similarity is exact.
type axisEmbedder struct {
	axes map[string]int
	dim  int
}

func newAxisEmbedder(words ...string) *axisEmbedder {
	axes := make(map[string]int, len(words))
	for i, w := range words {
		axes[w] = i
	}
	return &axisEmbedder{axes: axes, dim: len(words)}
}

func (e *axisEmbedder) embed(text string) []float32 {
	v := make([]float32, e.dim)
	if i, ok := e.axes[text]; ok {
		v[i] = 1
	} else {
		v[0] = 0.5
		if e.dim > 1 {
			v[1] = 0.5
		}
	}
	return v
}

func (e *axisEmbedder) EmbedDocument(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func (e *axisEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.embed(text), nil
}

func TestInMemoryVectorStore_AddAndSearch(t *testing.T) {
	t.Parallel()

	embedder := newAxisEmbedder("apples", "rockets", "cheese")
	s := NewInMemoryVectorStore(embedder)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, []Document{
		{ID: "d1", Content: "apples"},
		{ID: "d2", Content: "rockets"},
		{ID: "d3", Content: "cheese"},
	}))

	query, err := embedder.EmbedQuery(ctx, "rockets")
	require.NoError(t, err)

	results, err := s.Search(ctx, query, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "d2", results[0].Document.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestInMemoryVectorStore_SearchValidation(t *testing.T) {
	t.Parallel()

	s := NewInMemoryVectorStore(nil)

	_, err := s.Search(context.Background(), []float32{1}, 0)
	assert.Error(t, err)

	// Empty store returns no results, not an error.
	results, err := s.Search(context.Background(), []float32{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestInMemoryVectorStore_NoEmbedderRequiresEmbeddings(t *testing.T) {
	t.Parallel()

	s := NewInMemoryVectorStore(nil)
	ctx := context.Background()

	err := s.Add(ctx, []Document{{ID: "d1", Content: "text"}})
	assert.Error(t, err)

	require.NoError(t, s.Add(ctx, []Document{
		{ID: "d2", Content: "text", Embedding: []float32{1, 0}},
	}))
	assert.Equal(t, 1, s.Stats().TotalDocuments)
}

func TestInMemoryVectorStore_SearchWithFilter(t *testing.T) {
	t.Parallel()

	embedder := newAxisEmbedder("a", "b")
	s := NewInMemoryVectorStore(embedder)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, []Document{
		{ID: "d1", Content: "a", Metadata: map[string]any{"lang": "en"}},
		{ID: "d2", Content: "a", Metadata: map[string]any{"lang": "de"}},
	}))

	query, _ := embedder.EmbedQuery(ctx, "a")
	results, err := s.SearchWithFilter(ctx, query, 5, map[string]any{"lang": "de"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "d2", results[0].Document.ID)
}

func TestInMemoryVectorStore_Delete(t *testing.T) {
	t.Parallel()

	embedder := newAxisEmbedder("a", "b")
	s := NewInMemoryVectorStore(embedder)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, []Document{
		{ID: "d1", Content: "a"},
		{ID: "d2", Content: "b"},
	}))

	require.NoError(t, s.Delete(ctx, []string{"d1"}))
	assert.Equal(t, 1, s.Stats().TotalDocuments)
}

func TestInMemoryVectorStore_SaveAndLoad(t *testing.T) {
	t.Parallel()

	embedder := newAxisEmbedder("apples", "rockets")
	s := NewInMemoryVectorStore(embedder)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, []Document{
		{ID: "d1", Content: "apples", Metadata: map[string]any{"topic": "food"}},
		{ID: "d2", Content: "rockets"},
	}))

	path := filepath.Join(t.TempDir(), "corpus", "store.json")
	require.NoError(t, s.SaveToFile(path))

	restored := NewInMemoryVectorStore(embedder)
	require.NoError(t, restored.LoadFromFile(path))
	assert.Equal(t, 2, restored.Stats().TotalDocuments)

	query, _ := embedder.EmbedQuery(ctx, "apples")
	results, err := restored.Search(ctx, query, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "d1", results[0].Document.ID)
	assert.Equal(t, "food", results[0].Document.Metadata["topic"])
}

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, cosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Zero(t, cosineSimilarity(nil, nil))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestRetriever_ThresholdAndTopK(t *testing.T) {
	t.Parallel()

	embedder := newAxisEmbedder("apples", "rockets", "cheese")
	s := NewInMemoryVectorStore(embedder)
	ctx := context.Background()

	require.NoError(t, s.Add(ctx, []Document{
		{ID: "d1", Content: "apples"},
		{ID: "d2", Content: "rockets"},
		{ID: "d3", Content: "cheese"},
	}))

	r := NewRetriever(s, embedder, WithTopK(3), WithScoreThreshold(0.9))
	results, err := r.GetRelevantDocuments(ctx, "apples")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "d1", results[0].Document.ID)

	// Without a threshold every candidate comes back.
	r = NewRetriever(s, embedder, WithTopK(2))
	results, err = r.GetRelevantDocuments(ctx, "apples")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
