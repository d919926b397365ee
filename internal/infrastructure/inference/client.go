package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"phishguard/internal/config"
	"phishguard/internal/domain/services"
	"phishguard/pkg/logger"
)

// Client calls a remote sentiment-classification endpoint that speaks the
// common inference-API shape: a JSON body with an "inputs" field and a
// nested list of label/score pairs in the response.
type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
	logger     *logger.Logger
}

// NewClient creates an inference client from configuration.
func NewClient(cfg config.InferenceConfig, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		logger:     log.WithComponent("inference-client"),
	}
}

type classifyRequest struct {
	Inputs string `json:"inputs"`
}

// Classify sends text to the remote model and returns its label scores.
func (c *Client) Classify(ctx context.Context, text string) ([]services.LabelScore, error) {
	body, err := json.Marshal(classifyRequest{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference service returned %d: %s", resp.StatusCode, string(data))
	}

	// The response is a list of candidate lists, one per input.
	var parsed [][]services.LabelScore
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode classify response: %w", err)
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("inference service returned no results")
	}

	return parsed[0], nil
}
