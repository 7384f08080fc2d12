package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"semsearch/internal/domain"
	"semsearch/internal/ranker"
)

// oversampleFactor controls how many candidates are pulled from the index
// per requested result. Re-ranking by recency needs more material than
// top_k so recent-but-less-similar chunks are not starved.
const oversampleFactor = 4

// QueryService validates a query, drives embedding, retrieval and ranking,
// and returns a bounded, ordered result list.
type QueryService struct {
	embedder domain.Embedder
	index    domain.VectorIndex
	ranker   *ranker.Ranker
	timeout  time.Duration
	log      *zap.Logger
	clock    func() time.Time
}

func NewQueryService(embedder domain.Embedder, index domain.VectorIndex, rk *ranker.Ranker, timeout time.Duration, log *zap.Logger) *QueryService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &QueryService{
		embedder: embedder,
		index:    index,
		ranker:   rk,
		timeout:  timeout,
		log:      log,
		clock:    time.Now,
	}
}

// Search runs a query end to end under the service deadline. Zero matching
// chunks yield an empty list, not an error; a deadline elapsing mid-flight
// yields ErrTimeout, never partial results.
func (s *QueryService) Search(ctx context.Context, q domain.Query) ([]domain.ResultItem, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	now := s.clock()

	vec, err := s.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, timeoutOr(err)
	}

	filter := domain.Filter{Types: q.Types}
	if q.MaxAgeDays != nil {
		filter.Cutoff = now.Add(-time.Duration(*q.MaxAgeDays) * 24 * time.Hour)
	}
	matches, err := s.index.Search(ctx, vec, q.TopK*oversampleFactor, filter)
	if err != nil {
		return nil, timeoutOr(err)
	}

	ranked := s.ranker.Rank(now, matches, q.RecencyBoost)
	if len(ranked) > q.TopK {
		ranked = ranked[:q.TopK]
	}
	items := make([]domain.ResultItem, len(ranked))
	for i, r := range ranked {
		items[i] = domain.ResultItem{
			ID:     r.Chunk.ID,
			Type:   r.Chunk.Type,
			Source: r.Chunk.Source,
			Score:  r.Score,
			Text:   r.Chunk.Text,
		}
	}
	s.log.Debug("query served",
		zap.Int("candidates", len(matches)),
		zap.Int("results", len(items)),
		zap.Float64("recency_boost", q.RecencyBoost))
	return items, nil
}

func timeoutOr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	return err
}
