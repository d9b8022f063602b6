// Package embeddings provides text-embedding clients for corpus
// indexing and query embedding. Embedding models themselves are a
// remote concern; this package only speaks their APIs.
package embeddings

import "context"

// Embedder generates vector embeddings for text.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving
	// input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimensionality.
	Dimensions() int
}
