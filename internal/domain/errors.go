package domain

import "errors"

// Domain errors represent the failure taxonomy of the engine.
// Callers classify with errors.Is; wrapped messages carry the offending
// field or document id.
var (
	// ErrInvalidQuery indicates a malformed query, rejected before any work.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrEmbeddingUnavailable indicates the embedding backend could not be
	// reached. Transient failures are retried internally; this surfaces only
	// after retries are exhausted.
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

	// ErrTimeout indicates the query deadline elapsed before embedding or
	// retrieval completed. No partial results accompany it.
	ErrTimeout = errors.New("query deadline exceeded")

	// ErrIndexCorruption indicates a structural invariant of the vector index
	// was violated. Not retryable; the index needs a rebuild.
	ErrIndexCorruption = errors.New("index corruption")

	// ErrBacklogged indicates the ingestion queue is full. Callers should
	// retry later.
	ErrBacklogged = errors.New("ingestion queue full")

	// ErrUnsupportedType indicates a document type outside the fixed set.
	ErrUnsupportedType = errors.New("unsupported document type")

	// ErrDimensionMismatch indicates a vector whose dimension does not match
	// the dimension the index was created with.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
