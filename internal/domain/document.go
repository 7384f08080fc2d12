package domain

import (
	"fmt"
	"time"
)

// DocumentType is the content category of an ingested document.
type DocumentType string

const (
	TypePDF      DocumentType = "pdf"
	TypeMarkdown DocumentType = "markdown"
	TypeNote     DocumentType = "note"
)

// ParseDocumentType maps an external type label onto the fixed set of
// document types.
func ParseDocumentType(s string) (DocumentType, error) {
	switch DocumentType(s) {
	case TypePDF, TypeMarkdown, TypeNote:
		return DocumentType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, s)
	}
}

// Document is a unit of ingestion: extracted text plus its metadata.
// It is immutable once ingested; re-ingesting the same source produces
// a new version that replaces the old chunk set.
type Document struct {
	ID        string
	Type      DocumentType
	Source    string
	Content   string
	CreatedAt time.Time
}

// Chunk is a contiguous span of a document's text, the unit of embedding
// and retrieval. Chunk ids are globally unique and never reused; the
// creation timestamp is inherited from the parent document and drives
// age computation.
type Chunk struct {
	ID         string
	DocumentID string
	Type       DocumentType
	Source     string
	Ordinal    int
	Text       string
	Vector     []float64
	CreatedAt  time.Time
}

// IngestStatus tracks a document through the ingestion state machine.
type IngestStatus string

const (
	StatusReceived IngestStatus = "received"
	StatusChunked  IngestStatus = "chunked"
	StatusEmbedded IngestStatus = "embedded"
	StatusIndexed  IngestStatus = "indexed"
	StatusFailed   IngestStatus = "failed"
)

// IngestReport is the per-document outcome of an ingestion batch.
type IngestReport struct {
	DocumentID string
	Source     string
	Status     IngestStatus
	Chunks     int
	Err        error
}
