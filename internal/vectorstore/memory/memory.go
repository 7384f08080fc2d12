package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"semsearch/internal/domain"
)

// Index is an in-memory flat vector index using exact brute-force cosine
// similarity. Inserts append under a write lock, so they are atomic per
// chunk and immediately visible to readers; retrieval holds only a read
// lock and ingestion and queries may run in parallel.
type Index struct {
	mu        sync.RWMutex
	dimension int
	chunks    []domain.Chunk
	ids       map[string]struct{}
}

func NewIndex(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dimension)
	}
	return &Index{dimension: dimension, ids: make(map[string]struct{})}, nil
}

func (s *Index) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func (s *Index) Insert(_ context.Context, chunk domain.Chunk) error {
	if chunk.ID == "" || chunk.Text == "" {
		return fmt.Errorf("chunk %q of document %q: missing id or text", chunk.ID, chunk.DocumentID)
	}
	if len(chunk.Vector) != s.dimension {
		return fmt.Errorf("%w: chunk %s has dimension %d, index has %d",
			domain.ErrDimensionMismatch, chunk.ID, len(chunk.Vector), s.dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[chunk.ID]; ok {
		return fmt.Errorf("%w: duplicate chunk id %s", domain.ErrIndexCorruption, chunk.ID)
	}
	s.chunks = append(s.chunks, chunk)
	s.ids[chunk.ID] = struct{}{}
	return nil
}

func (s *Index) Search(ctx context.Context, vector []float64, limit int, filter domain.Filter) ([]domain.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query vector has dimension %d, index has %d",
			domain.ErrDimensionMismatch, len(vector), s.dimension)
	}
	if limit <= 0 {
		limit = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.chunks) != len(s.ids) {
		return nil, fmt.Errorf("%w: %d chunks vs %d ids", domain.ErrIndexCorruption, len(s.chunks), len(s.ids))
	}
	matches := make([]domain.Match, 0, limit)
	for i := range s.chunks {
		if !filter.Matches(s.chunks[i]) {
			continue
		}
		matches = append(matches, domain.Match{
			Chunk:      s.chunks[i],
			Similarity: cosine(vector, s.chunks[i].Vector),
		})
	}
	// exact top-k, ties broken by chunk id for reproducible ordering
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Chunk.ID < matches[j].Chunk.ID
	})
	if limit < len(matches) {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *Index) RemoveDocument(_ context.Context, documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.chunks[:0]
	removed := 0
	for _, c := range s.chunks {
		if c.DocumentID == documentID {
			delete(s.ids, c.ID)
			removed++
			continue
		}
		kept = append(kept, c)
	}
	s.chunks = kept
	return removed, nil
}

// cosine is the normalized dot product of two vectors, in [-1, 1].
func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
