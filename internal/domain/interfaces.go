package domain

import (
	"context"
	"time"
)

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// Embedder converts free text into a numeric vector representation.
// The dimension is fixed for the lifetime of an index; the same text with
// the same backend configuration yields the same vector.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Filter restricts retrieval to chunks of the given types created at or
// after the cutoff. A nil Types set accepts all types; a zero Cutoff
// leaves age unbounded.
type Filter struct {
	Types  []DocumentType
	Cutoff time.Time
}

// Matches reports whether the chunk satisfies the filter.
func (f Filter) Matches(c Chunk) bool {
	if len(f.Types) > 0 {
		ok := false
		for _, t := range f.Types {
			if c.Type == t {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if !f.Cutoff.IsZero() && c.CreatedAt.Before(f.Cutoff) {
		return false
	}
	return true
}

// Match is a retrieval candidate: a chunk with its raw cosine similarity
// to the query vector.
type Match struct {
	Chunk      Chunk
	Similarity float64
}

// VectorIndex stores chunk vectors plus metadata and serves filtered
// nearest-neighbour retrieval. Inserts are atomic per chunk and visible to
// retrievals issued after the insert returns.
type VectorIndex interface {
	Insert(ctx context.Context, chunk Chunk) error
	Search(ctx context.Context, vector []float64, limit int, filter Filter) ([]Match, error)
	RemoveDocument(ctx context.Context, documentID string) (int, error)
	Len() int
}
