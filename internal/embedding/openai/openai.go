package openai

import (
	"context"
	"fmt"
	"os"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// Client is an OpenAI embeddings backend. Vectors are cached per text so
// repeated embeddings of the same input stay identical even if the remote
// model is not strictly deterministic.
type Client struct {
	client    *openai.Client
	model     string
	dimension int

	mu    sync.Mutex
	cache map[string][]float64
}

// Config configures the OpenAI embeddings backend. The API key is read
// from the environment variable named by APIKeyEnv.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "OPENAI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	dim := 1536
	if cfg.Model == "text-embedding-3-large" {
		dim = 3072
	}
	return &Client{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		dimension: dim,
		cache:     make(map[string][]float64),
	}, nil
}

func (c *Client) Name() string { return "openai" }

func (c *Client) Dimension() int { return c.dimension }

func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	c.mu.Lock()
	if vec, ok := c.cache[text]; ok {
		c.mu.Unlock()
		return vec, nil
	}
	c.mu.Unlock()

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings: empty response")
	}
	emb := resp.Data[0].Embedding
	vec := make([]float64, len(emb))
	for i, x := range emb {
		vec[i] = float64(x)
	}
	if len(vec) != c.dimension {
		return nil, fmt.Errorf("openai embeddings: got dimension %d, want %d", len(vec), c.dimension)
	}

	c.mu.Lock()
	c.cache[text] = vec
	c.mu.Unlock()
	return vec, nil
}
