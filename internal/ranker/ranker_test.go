package ranker

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semsearch/internal/domain"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func match(id string, sim float64, age time.Duration) domain.Match {
	return domain.Match{
		Chunk: domain.Chunk{
			ID:         id,
			DocumentID: "doc-" + id,
			Type:       domain.TypeNote,
			Text:       "text " + id,
			CreatedAt:  now.Add(-age),
		},
		Similarity: sim,
	}
}

func ids(scored []Scored) []string {
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.Chunk.ID
	}
	return out
}

func TestRecencyScore(t *testing.T) {
	r := New(30)
	scored := r.Rank(now, []domain.Match{
		match("today", 0.5, 0),
		match("month", 0.5, 30*24*time.Hour),
	}, 1)
	require.Len(t, scored, 2)
	assert.InDelta(t, 1.0, scored[0].Recency, 1e-9, "age zero has recency 1.0")
	assert.InDelta(t, math.Exp(-1), scored[1].Recency, 1e-9, "one decay constant of age")
}

func TestBlendedScore(t *testing.T) {
	r := New(30)
	m := match("a", 0.8, 30*24*time.Hour)
	scored := r.Rank(now, []domain.Match{m}, 0.3)
	want := 0.7*0.8 + 0.3*math.Exp(-1)
	assert.InDelta(t, want, scored[0].Score, 1e-9)
}

func TestBoostZeroIsPureSimilarityOrder(t *testing.T) {
	r := New(30)
	scored := r.Rank(now, []domain.Match{
		match("old-relevant", 0.95, 365*24*time.Hour),
		match("new-vague", 0.2, time.Hour),
		match("mid", 0.5, 10*24*time.Hour),
	}, 0)
	assert.Equal(t, []string{"old-relevant", "mid", "new-vague"}, ids(scored))
}

func TestBoostOneIsPureRecencyOrder(t *testing.T) {
	r := New(30)
	scored := r.Rank(now, []domain.Match{
		match("old-relevant", 0.95, 365*24*time.Hour),
		match("new-vague", 0.2, time.Hour),
		match("mid", 0.5, 10*24*time.Hour),
	}, 1)
	assert.Equal(t, []string{"new-vague", "mid", "old-relevant"}, ids(scored), "newest first, similarity ignored")
}

func TestTieBreakBySimilarityThenAgeThenID(t *testing.T) {
	r := New(30)

	// equal blended score through equal inputs, differing similarity is
	// impossible at boost 0, so exercise each tier separately
	scored := r.Rank(now, []domain.Match{
		match("b", 0.5, time.Hour),
		match("a", 0.5, time.Hour),
	}, 0.5)
	assert.Equal(t, []string{"a", "b"}, ids(scored), "identical score, similarity and age fall back to id")

	scored = r.Rank(now, []domain.Match{
		match("older", 1, 48*time.Hour),
		match("newer", 1, 24*time.Hour),
	}, 0)
	assert.Equal(t, []string{"newer", "older"}, ids(scored), "equal score and similarity prefer the smaller age")
}

func TestFutureTimestampClampsToAgeZero(t *testing.T) {
	r := New(30)
	scored := r.Rank(now, []domain.Match{match("future", 0.1, -time.Hour)}, 1)
	assert.InDelta(t, 1.0, scored[0].Recency, 1e-9)
}
