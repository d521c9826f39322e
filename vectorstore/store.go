// Package vectorstore provides the schema-chunk vector index: a Pinecone
// REST backend for production, an in-memory backend for development and
// tests, and the Indexer that populates and queries either one.
package vectorstore

import (
	"context"

	"github.com/caresuite/nl2sql"
)

// Vector is one embedded schema chunk. ID is the chunk ID, which for
// schema chunks is the table name; Text rides along as metadata so query
// results can reconstruct the chunk without a second lookup.
type Vector struct {
	ID     string
	Values []float32
	Text   string
}

// Store is the vector index abstraction shared by the Pinecone and memory
// backends.
type Store interface {
	// Count reports how many vectors the index holds.
	Count(ctx context.Context) (int, error)
	// Upsert inserts or replaces vectors by ID.
	Upsert(ctx context.Context, vectors []Vector) error
	// Query returns the topK nearest chunks, best match first.
	Query(ctx context.Context, vector []float32, topK int) ([]nl2sql.ScoredChunk, error)
}
