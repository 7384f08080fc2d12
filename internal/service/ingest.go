package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"semsearch/internal/domain"
)

// DocumentInput is one record of an ingestion batch: extracted text plus
// its metadata. Text extraction happens upstream.
type DocumentInput struct {
	RawText   string
	Type      string
	Source    string
	CreatedAt time.Time
}

type job struct {
	ctx  context.Context
	doc  domain.Document
	done chan domain.IngestReport
}

// IngestService drives chunking, embedding and indexing for uploaded
// documents. Documents queue with a bounded capacity and are processed by
// a worker pool; each document succeeds or fails as a unit, and failures
// never affect the other documents of a batch.
type IngestService struct {
	chunker  domain.Chunker
	embedder domain.Embedder
	index    domain.VectorIndex
	log      *zap.Logger
	queue    chan job
	wg       sync.WaitGroup

	mu       sync.Mutex
	docLocks map[string]*sync.Mutex

	closeOnce sync.Once
}

func NewIngestService(ch domain.Chunker, embedder domain.Embedder, index domain.VectorIndex, queueSize, workers int, log *zap.Logger) *IngestService {
	if queueSize <= 0 {
		queueSize = 64
	}
	if workers <= 0 {
		workers = 4
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &IngestService{
		chunker:  ch,
		embedder: embedder,
		index:    index,
		log:      log,
		queue:    make(chan job, queueSize),
		docLocks: make(map[string]*sync.Mutex),
	}
	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.worker()
	}
	return s
}

// Close stops accepting documents and waits for queued work to drain.
func (s *IngestService) Close() {
	s.closeOnce.Do(func() { close(s.queue) })
	s.wg.Wait()
}

// DocumentID derives the stable document id from its source label, so
// re-ingesting the same source replaces the previous version.
func DocumentID(source string) string {
	h := sha1.Sum([]byte(source))
	return hex.EncodeToString(h[:8])
}

// Submit enqueues one document and returns a channel that will carry its
// report. When the queue is full it fails fast with ErrBacklogged instead
// of blocking.
func (s *IngestService) Submit(ctx context.Context, input DocumentInput) (<-chan domain.IngestReport, error) {
	typ, err := domain.ParseDocumentType(input.Type)
	if err != nil {
		return nil, fmt.Errorf("document %q: %w", input.Source, err)
	}
	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	j := job{
		ctx: ctx,
		doc: domain.Document{
			ID:        DocumentID(input.Source),
			Type:      typ,
			Source:    input.Source,
			Content:   input.RawText,
			CreatedAt: createdAt,
		},
		done: make(chan domain.IngestReport, 1),
	}
	select {
	case s.queue <- j:
		return j.done, nil
	default:
		return nil, fmt.Errorf("%w: document %q", domain.ErrBacklogged, input.Source)
	}
}

// IngestBatch submits a batch and waits for every per-document report.
// Queue overflow and unsupported types surface as Failed reports for the
// affected documents only.
func (s *IngestService) IngestBatch(ctx context.Context, inputs []DocumentInput) []domain.IngestReport {
	reports := make([]domain.IngestReport, len(inputs))
	dones := make([]<-chan domain.IngestReport, len(inputs))
	for i, in := range inputs {
		done, err := s.Submit(ctx, in)
		if err != nil {
			reports[i] = domain.IngestReport{
				DocumentID: DocumentID(in.Source),
				Source:     in.Source,
				Status:     domain.StatusFailed,
				Err:        err,
			}
			continue
		}
		dones[i] = done
	}
	for i, done := range dones {
		if done == nil {
			continue
		}
		select {
		case reports[i] = <-done:
		case <-ctx.Done():
			reports[i] = domain.IngestReport{
				DocumentID: DocumentID(inputs[i].Source),
				Source:     inputs[i].Source,
				Status:     domain.StatusFailed,
				Err:        timeoutOr(ctx.Err()),
			}
		}
	}
	return reports
}

func (s *IngestService) worker() {
	defer s.wg.Done()
	for j := range s.queue {
		j.done <- s.process(j.ctx, j.doc)
	}
}

// process walks one document through Received → Chunked → Embedded →
// Indexed. Any failure discards the document's partial work; the previous
// indexed version, if any, stays in place until the new one is ready.
func (s *IngestService) process(ctx context.Context, doc domain.Document) domain.IngestReport {
	report := domain.IngestReport{DocumentID: doc.ID, Source: doc.Source, Status: domain.StatusReceived}
	fail := func(err error) domain.IngestReport {
		report.Status = domain.StatusFailed
		report.Err = fmt.Errorf("document %s (%s): %w", doc.ID, doc.Source, err)
		s.log.Warn("ingestion failed",
			zap.String("document", doc.ID),
			zap.String("source", doc.Source),
			zap.Error(err))
		return report
	}

	chunks, err := s.chunker.Chunk(doc)
	if err != nil {
		return fail(err)
	}
	report.Status = domain.StatusChunked

	// Embedding happens before any index mutation and holds no index lock.
	for i := range chunks {
		vec, err := s.embedder.Embed(ctx, chunks[i].Text)
		if err != nil {
			return fail(err)
		}
		chunks[i].Vector = vec
	}
	report.Status = domain.StatusEmbedded

	// Replace the previous version atomically with respect to other
	// ingestions of the same document.
	unlock := s.lockDocument(doc.ID)
	defer unlock()
	if _, err := s.index.RemoveDocument(ctx, doc.ID); err != nil {
		return fail(err)
	}
	for _, c := range chunks {
		if err := s.index.Insert(ctx, c); err != nil {
			_, _ = s.index.RemoveDocument(ctx, doc.ID)
			return fail(err)
		}
	}
	report.Status = domain.StatusIndexed
	report.Chunks = len(chunks)
	s.log.Info("document indexed",
		zap.String("document", doc.ID),
		zap.String("source", doc.Source),
		zap.Int("chunks", len(chunks)))
	return report
}

func (s *IngestService) lockDocument(id string) func() {
	s.mu.Lock()
	l, ok := s.docLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.docLocks[id] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}
