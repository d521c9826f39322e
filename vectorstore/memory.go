package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/caresuite/nl2sql"
)

// MemoryStore keeps vectors in process memory and ranks queries by cosine
// similarity. It backs the memory store backend and doubles as the test
// double for the Pinecone path.
type MemoryStore struct {
	mu      sync.RWMutex
	vectors map[string]Vector
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{vectors: map[string]Vector{}}
}

// Count reports how many vectors the store holds.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors), nil
}

// Upsert inserts or replaces vectors by ID.
func (s *MemoryStore) Upsert(ctx context.Context, vectors []Vector) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		s.vectors[v.ID] = v
	}
	return nil
}

// Query scores every stored vector against the query vector and returns
// the topK best matches, highest similarity first. Ties break on ID so
// results stay deterministic.
func (s *MemoryStore) Query(ctx context.Context, vector []float32, topK int) ([]nl2sql.ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	scored := make([]nl2sql.ScoredChunk, 0, len(s.vectors))
	for _, v := range s.vectors {
		scored = append(scored, nl2sql.ScoredChunk{
			SchemaChunk: nl2sql.SchemaChunk{
				ID:    v.ID,
				Table: v.ID,
				Text:  v.Text,
			},
			Score: cosineSimilarity(vector, v.Values),
		})
	}
	s.mu.RUnlock()

	sort.Slice(scored, func(a, b int) bool {
		if scored[a].Score != scored[b].Score {
			return scored[a].Score > scored[b].Score
		}
		return scored[a].ID < scored[b].ID
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// ResetIndex drops every stored vector.
func (s *MemoryStore) ResetIndex(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.vectors)
	return nil
}

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
