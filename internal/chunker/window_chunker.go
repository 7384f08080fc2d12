package chunker

import (
	"math"

	"github.com/google/uuid"

	"semsearch/internal/domain"
)

// WindowChunker splits text into fixed-size rune windows with a fractional
// overlap. Consecutive chunks share exactly round(size*overlap) runes; the
// final chunk may be shorter. The chunker is deterministic and stateless.
type WindowChunker struct {
	size    int
	overlap float64
}

func NewWindowChunker(size int, overlap float64) *WindowChunker {
	if size <= 0 {
		size = 800
	}
	if overlap < 0 || overlap >= 1 {
		overlap = 0
	}
	return &WindowChunker{size: size, overlap: overlap}
}

// OverlapRunes returns the exact number of runes shared by consecutive
// chunks.
func (c *WindowChunker) OverlapRunes() int {
	ov := int(math.Round(float64(c.size) * c.overlap))
	if ov >= c.size {
		ov = c.size - 1
	}
	return ov
}

// Chunk covers the whole document text with overlapping windows. Empty
// text yields no chunks. Chunk ids are freshly generated; type, source and
// creation time are inherited from the document.
func (c *WindowChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	runes := []rune(document.Content)
	if len(runes) == 0 {
		return nil, nil
	}
	step := c.size - c.OverlapRunes()
	var chunks []domain.Chunk
	idx := 0
	for pos := 0; ; pos += step {
		end := pos + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.NewString(),
			DocumentID: document.ID,
			Type:       document.Type,
			Source:     document.Source,
			Ordinal:    idx,
			Text:       string(runes[pos:end]),
			CreatedAt:  document.CreatedAt,
		})
		if end == len(runes) {
			break
		}
		idx++
	}
	return chunks, nil
}
