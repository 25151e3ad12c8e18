// Package embedding calls the provider's embeddings endpoint in batches.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MissionSquad/missionsquad-docs/internal/upstream"
)

// ErrNoEmbeddings reports a response that decoded but carried no embeddings
// collection. Treated as fatal by the build pipeline.
var ErrNoEmbeddings = errors.New("invalid embeddings response: missing embeddings")

// UpstreamError is a non-success HTTP status from the provider.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("embeddings HTTP %d", e.StatusCode)
}

// Client sends batches of plain text to an OpenAI-compatible embeddings
// endpoint. One HTTP request per batch; a single failure aborts the caller,
// there is no retry here because a partial index is worse than no index.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	httpc   *http.Client
}

// Config configures the embeddings client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("missing API key")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("missing base URL")
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 60 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpc:   &http.Client{Timeout: t},
	}, nil
}

// Model returns the configured embedding model name.
func (c *Client) Model() string { return c.model }

// EmbedBatch returns one vector per input text, in input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	body, err := json.Marshal(struct {
		Model string   `json:"model"`
		Input []string `json:"input"`
	}{Model: c.model, Input: texts})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, upstream.EmbeddingsURL(c.baseURL), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embeddings request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode}
	}

	var out struct {
		Embeddings [][]float64 `json:"embeddings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode embeddings response: %w", err)
	}
	if out.Embeddings == nil {
		return nil, ErrNoEmbeddings
	}
	return out.Embeddings, nil
}
