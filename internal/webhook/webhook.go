// Package webhook triggers external automations by POSTing JSON to a
// configured webhook URL (an n8n-style automation endpoint).
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gatherhq/gather/internal/httpkit"
)

// Client posts payloads to a single configured webhook.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a webhook client for the given URL.
func NewClient(url string, logger *slog.Logger) *Client {
	return &Client{
		url:        url,
		httpClient: httpkit.NewClient(httpkit.WithTimeout(30 * time.Second)),
		logger:     logger,
	}
}

// Trigger posts the payload and returns the webhook's response as raw
// JSON. Endpoints that answer with a non-JSON body get normalized to
// {"status": <code>, "text": <body>} so callers always receive JSON.
func (c *Client) Trigger(ctx context.Context, payload map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read webhook response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	if json.Valid(respBody) && len(bytes.TrimSpace(respBody)) > 0 {
		c.logger.Debug("webhook triggered", "status", resp.StatusCode, "bytes", len(respBody))
		return json.RawMessage(respBody), nil
	}

	normalized, err := json.Marshal(map[string]any{
		"status": resp.StatusCode,
		"text":   string(respBody),
	})
	if err != nil {
		return nil, fmt.Errorf("normalize webhook response: %w", err)
	}
	return json.RawMessage(normalized), nil
}
