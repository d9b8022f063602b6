package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore implements VectorStore with brute-force cosine search.
// It is not suitable for large corpora; the corpus here is a course
// catalog measured in thousands of chunks, not millions.
type MemoryStore struct {
	documents map[string]Document
	dims      int
	mu        sync.RWMutex
}

// NewMemoryStore creates an in-memory store for embeddings of the
// given dimensionality.
func NewMemoryStore(dims int) (*MemoryStore, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("embedding dimensions must be greater than 0, got %d", dims)
	}
	return &MemoryStore{
		documents: make(map[string]Document),
		dims:      dims,
	}, nil
}

// Upsert inserts or updates documents with embeddings.
func (m *MemoryStore) Upsert(ctx context.Context, documents []Document) error {
	if len(documents) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range documents {
		doc := documents[i]
		if doc.ID == "" {
			return fmt.Errorf("document at index %d has no ID", i)
		}
		if len(doc.Embedding) != m.dims {
			return fmt.Errorf("document %s: %w (expected %d, got %d)",
				doc.ID, ErrDimensionMismatch, m.dims, len(doc.Embedding))
		}
		m.documents[doc.ID] = copyDocument(doc)
	}
	return nil
}

// Search performs brute-force cosine similarity search.
func (m *MemoryStore) Search(ctx context.Context, query SearchQuery) ([]SearchResult, error) {
	if len(query.Embedding) != m.dims {
		return nil, fmt.Errorf("query: %w (expected %d, got %d)",
			ErrDimensionMismatch, m.dims, len(query.Embedding))
	}

	topK := query.TopK
	if topK <= 0 {
		topK = 5
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]SearchResult, 0, len(m.documents))
	for _, doc := range m.documents {
		if !matchesFilter(doc.Metadata, query.Filter) {
			continue
		}
		score := cosineSimilarity(query.Embedding, doc.Embedding)
		results = append(results, SearchResult{Document: copyDocument(doc), Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.ID < results[j].Document.ID
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Delete removes documents by their IDs.
func (m *MemoryStore) Delete(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		delete(m.documents, id)
	}
	return nil
}

// Count returns the number of stored documents.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.documents), nil
}

// Close releases resources held by the store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = make(map[string]Document)
	return nil
}

func matchesFilter(metadata, filter map[string]any) bool {
	for key, want := range filter {
		got, ok := metadata[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func copyDocument(doc Document) Document {
	out := doc
	out.Embedding = append([]float32(nil), doc.Embedding...)
	if doc.Metadata != nil {
		out.Metadata = make(map[string]any, len(doc.Metadata))
		for k, v := range doc.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
