package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// InMemoryVectorStore keeps documents and their embeddings in memory and
// answers cosine-similarity searches. It can persist itself to a JSON file
// so a corpus survives restarts.
type InMemoryVectorStore struct {
	mu        sync.RWMutex
	documents []Document
	embedder  Embedder
}

// StoreStats describes the current content of a vector store.
type StoreStats struct {
	TotalDocuments int       `json:"total_documents"`
	Dimension      int       `json:"dimension"`
	LastUpdated    time.Time `json:"last_updated"`
}

// NewInMemoryVectorStore creates an empty store. The embedder may be nil
// when every added document carries its own embedding.
func NewInMemoryVectorStore(embedder Embedder) *InMemoryVectorStore {
	return &InMemoryVectorStore{embedder: embedder}
}

// Add stores documents, embedding any that have no embedding yet.
func (s *InMemoryVectorStore) Add(ctx context.Context, documents []Document) error {
	prepared := make([]Document, 0, len(documents))
	for _, doc := range documents {
		if len(doc.Embedding) == 0 {
			if s.embedder == nil {
				return fmt.Errorf("no embedder configured and document %q has no embedding", doc.ID)
			}
			embedding, err := s.embedder.EmbedDocument(ctx, doc.Content)
			if err != nil {
				return fmt.Errorf("failed to embed document %q: %w", doc.ID, err)
			}
			doc.Embedding = embedding
		}
		prepared = append(prepared, doc)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = append(s.documents, prepared...)
	return nil
}

// Search returns the k most similar documents to the query embedding,
// best first.
func (s *InMemoryVectorStore) Search(_ context.Context, queryEmbedding []float32, k int) ([]SearchResult, error) {
	return s.search(queryEmbedding, k, nil)
}

// SearchWithFilter restricts the search to documents whose metadata
// matches every key in the filter.
func (s *InMemoryVectorStore) SearchWithFilter(_ context.Context, queryEmbedding []float32, k int, filter map[string]any) ([]SearchResult, error) {
	return s.search(queryEmbedding, k, filter)
}

func (s *InMemoryVectorStore) search(queryEmbedding []float32, k int, filter map[string]any) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]SearchResult, 0, len(s.documents))
	for _, doc := range s.documents {
		if !matchesFilter(doc, filter) {
			continue
		}
		results = append(results, SearchResult{
			Document: doc,
			Score:    cosineSimilarity(queryEmbedding, doc.Embedding),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Delete removes the documents with the given IDs.
func (s *InMemoryVectorStore) Delete(_ context.Context, ids []string) error {
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.documents[:0]
	for _, doc := range s.documents {
		if !idSet[doc.ID] {
			kept = append(kept, doc)
		}
	}
	s.documents = kept
	return nil
}

// Stats reports the store's document count and embedding dimension.
func (s *InMemoryVectorStore) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := StoreStats{
		TotalDocuments: len(s.documents),
		LastUpdated:    time.Now(),
	}
	if len(s.documents) > 0 {
		stats.Dimension = len(s.documents[0].Embedding)
	}
	return stats
}

// SaveToFile writes the store's documents, embeddings included, to a JSON
// file, creating parent directories as needed.
func (s *InMemoryVectorStore) SaveToFile(path string) error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.documents, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal documents: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	return nil
}

// LoadFromFile replaces the store's content with documents read from a
// JSON file written by SaveToFile.
func (s *InMemoryVectorStore) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read store file: %w", err)
	}

	var documents []Document
	if err := json.Unmarshal(data, &documents); err != nil {
		return fmt.Errorf("failed to unmarshal documents: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = documents
	return nil
}

func matchesFilter(doc Document, filter map[string]any) bool {
	for key, value := range filter {
		docValue, exists := doc.Metadata[key]
		if !exists || docValue != value {
			return false
		}
	}
	return true
}

// cosineSimilarity returns the cosine of the angle between two vectors,
// or 0 when either is empty or the lengths differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
