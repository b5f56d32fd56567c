// Package rag provides the retrieval pieces the demo programs share: an
// embedder abstraction, an in-memory vector store with JSON persistence,
// a recursive character splitter and a score-threshold retriever.
package rag

import (
	"context"

	"github.com/tmc/langchaingo/embeddings"
)

// Document is a piece of text with metadata and an optional precomputed
// embedding.
type Document struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Embedding []float32      `json:"embedding,omitempty"`
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document Document
	Score    float64
}

// Embedder turns text into vectors.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// LangChainEmbedder adapts langchaingo's embeddings.Embedder.
type LangChainEmbedder struct {
	embedder embeddings.Embedder
}

// NewLangChainEmbedder creates an adapter around a langchaingo embedder.
func NewLangChainEmbedder(embedder embeddings.Embedder) *LangChainEmbedder {
	return &LangChainEmbedder{embedder: embedder}
}

// EmbedDocument embeds a single document text.
func (e *LangChainEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedQuery embeds a search query.
func (e *LangChainEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embedder.EmbedQuery(ctx, text)
}
