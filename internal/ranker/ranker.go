package ranker

import (
	"math"
	"sort"
	"time"

	"semsearch/internal/domain"
)

// Ranker blends raw cosine similarity with an exponential recency score:
//
//	recency = exp(-age_days / decay_days)
//	final   = (1-boost)*similarity + boost*recency
//
// The decay constant is fixed at construction and is not query-settable.
// With boost 0 the ordering degenerates to pure similarity, with boost 1
// to pure recency (newest first).
type Ranker struct {
	decayDays float64
}

func New(decayDays float64) *Ranker {
	if decayDays <= 0 {
		decayDays = 30
	}
	return &Ranker{decayDays: decayDays}
}

// Scored is a ranked candidate with its score components.
type Scored struct {
	Chunk      domain.Chunk
	Similarity float64
	Recency    float64
	Score      float64
}

// Rank orders candidates by blended score. Ties break by larger raw
// similarity, then smaller age, then chunk id, so the ordering is fully
// deterministic.
func (r *Ranker) Rank(now time.Time, matches []domain.Match, boost float64) []Scored {
	scored := make([]Scored, len(matches))
	for i, m := range matches {
		rec := math.Exp(-ageDays(now, m.Chunk.CreatedAt) / r.decayDays)
		scored[i] = Scored{
			Chunk:      m.Chunk,
			Similarity: m.Similarity,
			Recency:    rec,
			Score:      (1-boost)*m.Similarity + boost*rec,
		}
	}
	sort.Slice(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if !a.Chunk.CreatedAt.Equal(b.Chunk.CreatedAt) {
			return a.Chunk.CreatedAt.After(b.Chunk.CreatedAt)
		}
		return a.Chunk.ID < b.Chunk.ID
	})
	return scored
}

// ageDays is the fractional age of a chunk in days. Timestamps in the
// future count as age zero.
func ageDays(now, created time.Time) float64 {
	d := now.Sub(created).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}
