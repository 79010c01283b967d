// Package embed fetches text embeddings from an OpenAI-compatible
// /embeddings endpoint.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const DefaultBatchSize = 64

// Client generates embeddings over HTTP.
type Client struct {
	Endpoint string
	APIKey   string
	Model    string

	HTTPClient *http.Client
	Limiter    *rate.Limiter
	BatchSize  int
	// Backoff lists the waits between retries of 429 and 5xx responses.
	Backoff []time.Duration
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []embedding `json:"data"`
}

type embedding struct {
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

// New creates a client paced at roughly 80 requests per minute.
func New(endpoint, apiKey, model string) *Client {
	return &Client{
		Endpoint:   endpoint,
		APIKey:     apiKey,
		Model:      model,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		Limiter:    rate.NewLimiter(rate.Every(750*time.Millisecond), 1),
		BatchSize:  DefaultBatchSize,
		Backoff:    []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
}

// Embed returns one vector per text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	size := c.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	results := make([][]float64, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		chunk := texts[start:end]

		body, err := json.Marshal(embedRequest{Model: c.Model, Input: chunk})
		if err != nil {
			return nil, fmt.Errorf("embed: marshal request: %w", err)
		}
		resp, err := c.doWithRetry(ctx, body)
		if err != nil {
			return nil, fmt.Errorf("embed: batch starting at %d: %w", start, err)
		}
		for _, item := range resp.Data {
			if item.Index < 0 || item.Index >= len(chunk) {
				return nil, fmt.Errorf("embed: out-of-range index %d for batch of %d", item.Index, len(chunk))
			}
			results[start+item.Index] = item.Embedding
		}
	}

	for i, r := range results {
		if r == nil {
			return nil, fmt.Errorf("embed: missing embedding for index %d", i)
		}
	}
	return results, nil
}

// doWithRetry retries 429 and 5xx responses, honouring Retry-After.
func (c *Client) doWithRetry(ctx context.Context, reqBody []byte) (*embedResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= len(c.Backoff); attempt++ {
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter wait: %w", err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(reqBody))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.APIKey)
		}

		resp, err := c.httpClient().Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
			}
			return nil, fmt.Errorf("request failed: %w", err)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			var out embedResponse
			if err := json.Unmarshal(body, &out); err != nil {
				return nil, fmt.Errorf("parse response: %w", err)
			}
			return &out, nil
		}

		lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < 500 {
			return nil, lastErr
		}
		if attempt == len(c.Backoff) {
			break
		}

		delay := c.Backoff[attempt]
		if resp.StatusCode == http.StatusTooManyRequests {
			if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
				delay = min(time.Duration(seconds)*time.Second, 30*time.Second)
			}
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("request cancelled during retry: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("all retries exhausted: %w", lastErr)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}
