package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"brewscout/internal/common/logger"
)

var ErrEmbeddingFailed = errors.New("EMBEDDING_REQUEST_FAILED")

// EmbedConfig holds the embedding service connection settings.
type EmbedConfig struct {
	BaseURL   string
	Model     string
	Dimension int
	Timeout   time.Duration
}

// EmbedClient calls an Ollama-compatible embeddings endpoint and returns
// fixed-length vectors.
type EmbedClient struct {
	config EmbedConfig
	client *http.Client
	logger logger.Logger
}

func NewEmbedClient(config EmbedConfig, log logger.Logger) *EmbedClient {
	return &EmbedClient{
		config: config,
		client: &http.Client{},
		logger: log.With(map[string]interface{}{
			"component": "embeddings",
		}),
	}
}

// Embed returns the embedding vector for the given text.
func (c *EmbedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	payload, _ := json.Marshal(map[string]interface{}{
		"model":  c.config.Model,
		"prompt": text,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/api/embeddings", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrGenAITimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrEmbeddingFailed, resp.StatusCode)
	}

	var apiResponse struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrEmbeddingFailed, err)
	}

	if c.config.Dimension > 0 && len(apiResponse.Embedding) != c.config.Dimension {
		return nil, fmt.Errorf("%w: expected %d dimensions, got %d",
			ErrEmbeddingFailed, c.config.Dimension, len(apiResponse.Embedding))
	}

	return apiResponse.Embedding, nil
}
