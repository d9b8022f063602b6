// Package vectorstore defines the similarity-search interface the
// corpus tools are built on, together with an in-memory
// implementation suitable for development and tests.
package vectorstore

import (
	"context"
	"errors"
)

// ErrDimensionMismatch is returned when an embedding's length does
// not match the store's configured dimensionality.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// VectorStore provides similarity search over embedded documents.
// Implementations must be safe for concurrent use.
type VectorStore interface {
	// Upsert inserts or updates documents with embeddings.
	Upsert(ctx context.Context, documents []Document) error

	// Search returns the most similar documents for a query vector.
	Search(ctx context.Context, query SearchQuery) ([]SearchResult, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Close releases resources held by the store.
	Close() error
}

// Document represents an embedded chunk of course material.
type Document struct {
	// ID is the unique identifier for the document
	ID string `json:"id"`

	// Content is the text content of the chunk
	Content string `json:"content"`

	// Embedding is the vector representation of the content
	Embedding []float32 `json:"embedding"`

	// Metadata carries chunk attribution: course_title, lesson_number,
	// lesson_title, chunk_index.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SearchQuery defines the parameters for a similarity search.
type SearchQuery struct {
	// Embedding is the query vector to search for
	Embedding []float32

	// TopK is the number of results to return (default: 5)
	TopK int

	// Filter restricts results to documents whose metadata matches
	// every key/value pair. Nil means no filtering.
	Filter map[string]any
}

// SearchResult is one search hit with its similarity score.
type SearchResult struct {
	Document Document `json:"document"`
	Score    float32  `json:"score"`
}
