package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semsearch/internal/domain"
)

type flakyEmbedder struct {
	calls     int
	failFirst int
}

func (f *flakyEmbedder) Name() string { return "flaky" }
func (f *flakyEmbedder) Dimension() int { return 3 }

func (f *flakyEmbedder) Embed(_ context.Context, _ string) ([]float64, error) {
	f.calls++
	if f.calls <= f.failFirst {
		return nil, errors.New("connection refused")
	}
	return []float64{1, 0, 0}, nil
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	inner := &flakyEmbedder{failFirst: 2}
	vec, err := WithRetry(inner, 3).Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0}, vec)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryExhaustionSurfacesEmbeddingUnavailable(t *testing.T) {
	inner := &flakyEmbedder{failFirst: 100}
	_, err := WithRetry(inner, 3).Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	inner := &flakyEmbedder{failFirst: 100}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := WithRetry(inner, 3).Embed(ctx, "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second, "must not sit out the full backoff schedule")
}
