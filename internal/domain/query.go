package domain

import "fmt"

// Query is a retrieval request. Types and MaxAgeDays are optional filters:
// an empty Types set accepts all types, a nil MaxAgeDays leaves age
// unbounded. RecencyBoost blends semantic similarity with recency in the
// final ranking.
type Query struct {
	Text         string
	TopK         int
	Types        []DocumentType
	MaxAgeDays   *int
	RecencyBoost float64
}

// Validate rejects malformed queries before any work is done.
func (q Query) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("%w: empty query text", ErrInvalidQuery)
	}
	if q.TopK < 1 {
		return fmt.Errorf("%w: top_k must be >= 1, got %d", ErrInvalidQuery, q.TopK)
	}
	if q.RecencyBoost < 0 || q.RecencyBoost > 1 {
		return fmt.Errorf("%w: recency_boost must be in [0,1], got %g", ErrInvalidQuery, q.RecencyBoost)
	}
	if q.MaxAgeDays != nil && *q.MaxAgeDays < 0 {
		return fmt.Errorf("%w: max_age_days must be >= 0, got %d", ErrInvalidQuery, *q.MaxAgeDays)
	}
	for _, t := range q.Types {
		if _, err := ParseDocumentType(string(t)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
	}
	return nil
}

// ResultItem is one entry of an ordered query response. Produced fresh per
// query, never persisted.
type ResultItem struct {
	ID     string
	Type   DocumentType
	Source string
	Score  float64
	Text   string
}
