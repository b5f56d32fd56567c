package rag

import (
	"context"
	"fmt"
)

// Retriever answers queries against a vector store, keeping only results
// at or above a score threshold.
type Retriever struct {
	store     *InMemoryVectorStore
	embedder  Embedder
	k         int
	threshold float64
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithTopK sets how many candidates the store search returns.
func WithTopK(k int) RetrieverOption {
	return func(r *Retriever) {
		r.k = k
	}
}

// WithScoreThreshold drops results scoring below the threshold.
func WithScoreThreshold(threshold float64) RetrieverOption {
	return func(r *Retriever) {
		r.threshold = threshold
	}
}

// NewRetriever creates a retriever over a store with a default top-4
// search and no score threshold.
func NewRetriever(store *InMemoryVectorStore, embedder Embedder, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		store:    store,
		embedder: embedder,
		k:        4,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetRelevantDocuments embeds the query and returns matching results, best
// first, filtered by the score threshold.
func (r *Retriever) GetRelevantDocuments(ctx context.Context, query string) ([]SearchResult, error) {
	queryEmbedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := r.store.Search(ctx, queryEmbedding, r.k)
	if err != nil {
		return nil, err
	}

	filtered := results[:0]
	for _, res := range results {
		if res.Score >= r.threshold {
			filtered = append(filtered, res)
		}
	}
	return filtered, nil
}
