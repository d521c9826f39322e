package vectorstore

import (
	"context"
	"fmt"

	"github.com/caresuite/nl2sql"
	"github.com/caresuite/nl2sql/llm"
)

// embedBatchSize caps how many chunk texts go into one embeddings request.
const embedBatchSize = 100

// indexCreator is implemented by backends that manage a remote index, such
// as Pinecone. The memory backend has nothing to create.
type indexCreator interface {
	EnsureIndex(ctx context.Context) error
}

// indexResetter is implemented by backends that can wipe their index.
type indexResetter interface {
	ResetIndex(ctx context.Context) error
}

// Indexer populates a Store from schema chunks and answers similarity
// searches over it.
type Indexer struct {
	store    Store
	embedder llm.Embedder

	// Logf, when set, receives progress lines during indexing.
	Logf func(format string, args ...any)
}

// NewIndexer wires a store to the embedder that vectorizes chunk texts.
func NewIndexer(store Store, embedder llm.Embedder) *Indexer {
	return &Indexer{store: store, embedder: embedder}
}

// EnsureIndexed makes sure the index exists and holds the schema vectors.
// A non-empty index is left alone, so restarts do not re-embed anything.
func (ix *Indexer) EnsureIndexed(ctx context.Context, chunks []nl2sql.SchemaChunk) error {
	if creator, ok := ix.store.(indexCreator); ok {
		if err := creator.EnsureIndex(ctx); err != nil {
			return err
		}
	}
	count, err := ix.store.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		ix.logf("index already populated (%d vectors)", count)
		return nil
	}
	return ix.populate(ctx, chunks)
}

// Reindex wipes the index when the backend supports that and repopulates
// it from chunks.
func (ix *Indexer) Reindex(ctx context.Context, chunks []nl2sql.SchemaChunk) error {
	if resetter, ok := ix.store.(indexResetter); ok {
		if err := resetter.ResetIndex(ctx); err != nil {
			return err
		}
	}
	if creator, ok := ix.store.(indexCreator); ok {
		if err := creator.EnsureIndex(ctx); err != nil {
			return err
		}
	}
	return ix.populate(ctx, chunks)
}

// Search embeds the question and returns the topK nearest schema chunks.
func (ix *Indexer) Search(ctx context.Context, question string, topK int) ([]nl2sql.ScoredChunk, error) {
	vectors, err := ix.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: %d embeddings for the question", ErrEmbeddingMismatch, len(vectors))
	}
	return ix.store.Query(ctx, vectors[0], topK)
}

func (ix *Indexer) populate(ctx context.Context, chunks []nl2sql.SchemaChunk) error {
	ix.logf("uploading %d schema vectors", len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}
		embeddings, err := ix.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if len(embeddings) != len(batch) {
			return fmt.Errorf("%w: %d embeddings for %d chunks", ErrEmbeddingMismatch, len(embeddings), len(batch))
		}

		vectors := make([]Vector, len(batch))
		for i, chunk := range batch {
			vectors[i] = Vector{ID: chunk.ID, Values: embeddings[i], Text: chunk.Text}
		}
		if err := ix.store.Upsert(ctx, vectors); err != nil {
			return err
		}
	}
	ix.logf("upload complete")
	return nil
}

func (ix *Indexer) logf(format string, args ...any) {
	if ix.Logf != nil {
		ix.Logf(format, args...)
	}
}
