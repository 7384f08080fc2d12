package embedding

import (
	"context"
	"fmt"
	"time"

	"semsearch/internal/domain"
)

// Retrying wraps an Embedder with bounded exponential backoff. Transient
// backend failures are retried and invisible to the caller; once attempts
// are exhausted the last error surfaces wrapped in ErrEmbeddingUnavailable.
type Retrying struct {
	inner    domain.Embedder
	attempts int
}

func WithRetry(inner domain.Embedder, attempts int) *Retrying {
	if attempts <= 0 {
		attempts = 3
	}
	return &Retrying{inner: inner, attempts: attempts}
}

func (r *Retrying) Name() string { return r.inner.Name() }

func (r *Retrying) Dimension() int { return r.inner.Dimension() }

func (r *Retrying) Embed(ctx context.Context, text string) ([]float64, error) {
	var last error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay(attempt - 1)):
			}
		}
		vec, err := r.inner.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		last = err
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, last)
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 2s
	d := base << attempt
	if d > 2*time.Second {
		d = 2 * time.Second
	}
	return d
}
