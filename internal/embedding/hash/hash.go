package hash

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// Embedder is a deterministic local backend using feature hashing: each
// token is hashed into a fixed number of buckets and the resulting term
// frequency vector is L2-normalized. It needs no network and yields
// bit-identical vectors for identical text, which makes it the default
// backend for tests and offline use.
type Embedder struct {
	dimension int
}

func NewEmbedder(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = 256
	}
	return &Embedder{dimension: dimension}
}

func (e *Embedder) Name() string { return "hash" }

func (e *Embedder) Dimension() int { return e.dimension }

func (e *Embedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.dimension)
	for _, tok := range wordRe.FindAllString(strings.ToLower(text), -1) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		sum := h.Sum32()
		bucket := int(sum % uint32(e.dimension))
		// high bit picks the sign so colliding tokens can cancel instead
		// of always accumulating
		if sum&0x80000000 != 0 {
			vec[bucket] -= 1
		} else {
			vec[bucket] += 1
		}
	}
	normalize(vec)
	return vec, nil
}

func normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range vec {
		vec[i] *= inv
	}
}
