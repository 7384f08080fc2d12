package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"semsearch/internal/domain"
)

// Index is a minimal REST client to Qdrant implementing the vector index
// contract against a remote collection. It assumes cosine distance and
// creates the collection if missing.
//
// Qdrant serves HNSW-based approximate search; recall is governed by the
// collection's hnsw_config rather than by this client. The in-memory
// backend remains the reference for exact top-k behaviour.
type Index struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// NewIndex creates the client and ensures the collection exists with the
// given vector dimension.
func NewIndex(ctx context.Context, cfg Config, dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, errors.New("invalid dimension")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	s := &Index{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  dimension,
		client:     &http.Client{Timeout: timeout},
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	// Qdrant returns 200 OK if the collection already exists with the same schema
	if err := s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Index) Insert(ctx context.Context, chunk domain.Chunk) error {
	if len(chunk.Vector) != s.dimension {
		return fmt.Errorf("%w: chunk %s has dimension %d, index has %d",
			domain.ErrDimensionMismatch, chunk.ID, len(chunk.Vector), s.dimension)
	}
	body := map[string]any{
		"points": []map[string]any{{
			"id":     chunk.ID,
			"vector": chunk.Vector,
			"payload": map[string]any{
				"document_id": chunk.DocumentID,
				"type":        string(chunk.Type),
				"source":      chunk.Source,
				"ordinal":     chunk.Ordinal,
				"text":        chunk.Text,
				"created_at":  chunk.CreatedAt.Unix(),
			},
		}},
	}
	return s.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection), body)
}

func (s *Index) Search(ctx context.Context, vector []float64, limit int, filter domain.Filter) ([]domain.Match, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query vector has dimension %d, index has %d",
			domain.ErrDimensionMismatch, len(vector), s.dimension)
	}
	if limit <= 0 {
		limit = 10
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if f := filterJSON(filter); f != nil {
		req["filter"] = f
	}
	// Point ids are strings (UUIDs) as written by Insert, but Qdrant also
	// permits integer ids, so decode loosely.
	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection), req, &resp); err != nil {
		return nil, err
	}
	matches := make([]domain.Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := domain.Chunk{}
		switch id := r.ID.(type) {
		case string:
			chunk.ID = id
		case float64:
			chunk.ID = fmt.Sprintf("%.0f", id)
		}
		if v, ok := r.Payload["document_id"].(string); ok {
			chunk.DocumentID = v
		}
		if v, ok := r.Payload["type"].(string); ok {
			chunk.Type = domain.DocumentType(v)
		}
		if v, ok := r.Payload["source"].(string); ok {
			chunk.Source = v
		}
		if v, ok := r.Payload["ordinal"].(float64); ok {
			chunk.Ordinal = int(v)
		}
		if v, ok := r.Payload["text"].(string); ok {
			chunk.Text = v
		}
		if v, ok := r.Payload["created_at"].(float64); ok {
			chunk.CreatedAt = time.Unix(int64(v), 0).UTC()
		}
		matches = append(matches, domain.Match{Chunk: chunk, Similarity: r.Score})
	}
	return matches, nil
}

func (s *Index) RemoveDocument(ctx context.Context, documentID string) (int, error) {
	filter := map[string]any{
		"must": []map[string]any{
			{"key": "document_id", "match": map[string]any{"value": documentID}},
		},
	}
	var count struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/count", s.url, s.collection),
		map[string]any{"filter": filter, "exact": true}, &count)
	if err != nil {
		return 0, err
	}
	err = s.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, s.collection),
		map[string]any{"filter": filter}, nil)
	if err != nil {
		return 0, err
	}
	return count.Result.Count, nil
}

// Len reports the exact point count, or 0 if the collection cannot be
// reached.
func (s *Index) Len() int {
	var count struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	err := s.postJSON(context.Background(), fmt.Sprintf("%s/collections/%s/points/count", s.url, s.collection),
		map[string]any{"exact": true}, &count)
	if err != nil {
		return 0
	}
	return count.Result.Count
}

func filterJSON(filter domain.Filter) map[string]any {
	var must []map[string]any
	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		must = append(must, map[string]any{
			"key":   "type",
			"match": map[string]any{"any": types},
		})
	}
	if !filter.Cutoff.IsZero() {
		must = append(must, map[string]any{
			"key":   "created_at",
			"range": map[string]any{"gte": filter.Cutoff.Unix()},
		})
	}
	if must == nil {
		return nil
	}
	return map[string]any{"must": must}
}

func (s *Index) putJSON(ctx context.Context, url string, body any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (s *Index) postJSON(ctx context.Context, url string, body any, out any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		dec := json.NewDecoder(resp.Body)
		return dec.Decode(out)
	}
	return nil
}
