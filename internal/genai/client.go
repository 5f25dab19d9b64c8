// Package genai is the HTTP client for the generative AI gateway: the
// text-to-SQL translator and the grounded-summary service. Sampling
// temperature is pinned to zero at this boundary; the engine requires
// deterministic output from both capabilities.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"brewscout/internal/common/logger"
)

var (
	ErrGenAITimeout = errors.New("GENAI_TIMEOUT")
	ErrGenAIFailed  = errors.New("GENAI_REQUEST_FAILED")
)

// Config holds the gateway connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Summary is a grounded summary with its search evidence metadata.
type Summary struct {
	Text        string
	SourceCount int
	QueriesUsed []string
}

type Client struct {
	config Config
	client *http.Client
	logger logger.Logger
}

func NewClient(config Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		// No client-level timeout; each call carries its own context deadline.
		client: &http.Client{},
		logger: log.With(map[string]interface{}{
			"component": "genai",
		}),
	}
}

// Translate converts a natural language question into a candidate SQL query
// given a schema description. The result is raw model output; the caller is
// responsible for stripping formatting markers and guarding the query.
func (c *Client) Translate(ctx context.Context, question, schemaDescription string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	requestBody := map[string]interface{}{
		"model":       c.config.Model,
		"prompt":      buildTranslatePrompt(question, schemaDescription),
		"temperature": 0,
	}

	var apiResponse struct {
		Text string `json:"text"`
	}
	if err := c.post(ctx, "/api/ai/generate", requestBody, &apiResponse); err != nil {
		return "", err
	}

	query := strings.TrimSpace(apiResponse.Text)
	if query == "" {
		return "", fmt.Errorf("%w: empty translation", ErrGenAIFailed)
	}

	c.logger.Debug("query translated", map[string]interface{}{
		"questionLength": len(question),
		"queryLength":    len(query),
	})

	return query, nil
}

// GroundedSummary generates a summary backed by live search evidence.
// Callers must treat this as the dominant latency source of a run.
func (c *Client) GroundedSummary(ctx context.Context, prompt string) (*Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	requestBody := map[string]interface{}{
		"model":       c.config.Model,
		"prompt":      prompt,
		"temperature": 0,
		"grounding":   true,
	}

	var apiResponse struct {
		Text        string   `json:"text"`
		SourceCount int      `json:"source_count"`
		Queries     []string `json:"queries"`
	}
	if err := c.post(ctx, "/api/ai/ground", requestBody, &apiResponse); err != nil {
		return nil, err
	}

	if strings.TrimSpace(apiResponse.Text) == "" {
		return nil, fmt.Errorf("%w: empty grounded summary", ErrGenAIFailed)
	}

	c.logger.Info("grounded summary generated", map[string]interface{}{
		"summaryLength": len(apiResponse.Text),
		"sourceCount":   apiResponse.SourceCount,
		"queriesUsed":   apiResponse.Queries,
	})

	return &Summary{
		Text:        strings.TrimSpace(apiResponse.Text),
		SourceCount: apiResponse.SourceCount,
		QueriesUsed: apiResponse.Queries,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+path, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGenAIFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return ErrGenAITimeout
		}
		return fmt.Errorf("%w: %v", ErrGenAIFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrGenAIFailed, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode error: %v", ErrGenAIFailed, err)
	}
	return nil
}

func buildTranslatePrompt(question, schemaDescription string) string {
	var b strings.Builder
	b.WriteString("Generate a single SQL SELECT statement answering the question below.\n")
	b.WriteString("Return only SQL, no explanation.\n\n")
	b.WriteString("Schema:\n")
	b.WriteString(schemaDescription)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
