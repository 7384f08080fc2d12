package chunker

import (
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semsearch/internal/domain"
)

func doc(content string) domain.Document {
	return domain.Document{
		ID:        "doc-1",
		Type:      domain.TypeNote,
		Source:    "notes/a.txt",
		Content:   content,
		CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}

func texts(chunks []domain.Chunk) []string {
	if len(chunks) == 0 {
		return nil
	}
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

func TestChunkWindows(t *testing.T) {
	var cases = []struct {
		input   string
		size    int
		overlap float64
		output  []string
	}{
		{input: "abcdefg", size: 3, overlap: 0, output: []string{"abc", "def", "g"}},
		{input: "abcdefg", size: 3, overlap: 1.0 / 3.0, output: []string{"abc", "cde", "efg"}},
		{input: "abcdefg", size: 9, overlap: 0.5, output: []string{"abcdefg"}},
		{input: "", size: 9, overlap: 0.5, output: nil},
	}

	for i, c := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			chunks, err := NewWindowChunker(c.size, c.overlap).Chunk(doc(c.input))
			require.NoError(t, err)
			assert.Equal(t, c.output, texts(chunks))
		})
	}
}

func TestChunkMetadata(t *testing.T) {
	d := doc("abcdefg")
	chunks, err := NewWindowChunker(3, 0).Chunk(d)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	seen := map[string]bool{}
	for i, c := range chunks {
		assert.Equal(t, i, c.Ordinal)
		assert.Equal(t, d.ID, c.DocumentID)
		assert.Equal(t, d.Type, c.Type)
		assert.Equal(t, d.Source, c.Source)
		assert.Equal(t, d.CreatedAt, c.CreatedAt)
		assert.NotEmpty(t, c.ID)
		assert.False(t, seen[c.ID], "chunk ids must be unique")
		seen[c.ID] = true
	}
}

func TestChunkUnicodeWindows(t *testing.T) {
	chunks, err := NewWindowChunker(2, 0.5).Chunk(doc("日本語のテキスト"))
	require.NoError(t, err)
	// overlap round(2*0.5) = 1 rune, so windows advance one rune at a time
	assert.Equal(t, []string{"日本", "本語", "語の", "のテ", "テキ", "キス", "スト"}, texts(chunks))
}

func TestChunkCoverageProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	alphabet := []rune("abcdefghij— проверка試験 ")
	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(500)
		runes := make([]rune, n)
		for i := range runes {
			runes[i] = alphabet[rng.Intn(len(alphabet))]
		}
		text := string(runes)
		size := 1 + rng.Intn(64)
		overlap := rng.Float64() * 0.95

		ch := NewWindowChunker(size, overlap)
		chunks, err := ch.Chunk(doc(text))
		require.NoError(t, err)

		if n == 0 {
			assert.Empty(t, chunks)
			continue
		}
		ov := ch.OverlapRunes()
		if want := int(math.Round(float64(size) * overlap)); want < size {
			assert.Equal(t, want, ov)
		}
		// Non-overlapping portions reconstruct the original text.
		rebuilt := []rune(chunks[0].Text)
		for i := 1; i < len(chunks); i++ {
			prev := []rune(chunks[i-1].Text)
			cur := []rune(chunks[i].Text)
			require.GreaterOrEqual(t, len(prev), ov)
			require.Greater(t, len(cur), ov, "a chunk must extend past the shared overlap")
			assert.Equal(t, string(prev[len(prev)-ov:]), string(cur[:ov]), "consecutive chunks share exactly the overlap")
			rebuilt = append(rebuilt, cur[ov:]...)
		}
		require.Equal(t, text, string(rebuilt))
		// Every chunk except the last is exactly the window size.
		for i := 0; i < len(chunks)-1; i++ {
			assert.Len(t, []rune(chunks[i].Text), size)
		}
		assert.LessOrEqual(t, len([]rune(chunks[len(chunks)-1].Text)), size)
	}
}
