// Package transcriptstore persists transcripts to the external transcript
// index so they are searchable independently of the job workspace.
package transcriptstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/services"
	"reelforge/internal/services/transcriber"
)

const defaultTimeout = time.Minute

// Client calls the transcript index HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a transcript-store client from configuration.
func NewClient(cfg config.TranscriptStore, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type storeRequest struct {
	JobID      string                  `json:"job_id"`
	UserID     string                  `json:"user_id"`
	Transcript *transcriber.Transcript `json:"transcript"`
}

type storeResponse struct {
	Ref string `json:"ref"`
}

// Store persists a transcript and returns the index reference assigned to it.
func (c *Client) Store(ctx context.Context, jobID, userID string, transcript *transcriber.Transcript) (string, error) {
	if c.baseURL == "" {
		return "", services.Wrap(services.ErrConfiguration, "storing-transcript", "store", "transcript store base URL not configured", nil)
	}
	body, err := json.Marshal(storeRequest{JobID: jobID, UserID: userID, Transcript: transcript})
	if err != nil {
		return "", fmt.Errorf("transcriptstore: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transcripts", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("transcriptstore: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "storing-transcript", "store", "transcript store request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "storing-transcript", "store", "read transcript store response", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail := fmt.Sprintf("transcript store: http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
		marker := services.ErrTransient
		if resp.StatusCode >= 400 && resp.StatusCode < 500 &&
			resp.StatusCode != http.StatusRequestTimeout && resp.StatusCode != http.StatusTooManyRequests {
			marker = services.ErrFatal
		}
		return "", services.Wrap(marker, "storing-transcript", "store", detail, nil)
	}

	var parsed storeResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("transcriptstore: decode response: %w", err)
	}
	if strings.TrimSpace(parsed.Ref) == "" {
		return "", services.Wrap(services.ErrFatal, "storing-transcript", "store", "transcript store returned no reference", nil)
	}
	return parsed.Ref, nil
}

// HealthCheck verifies the service is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.baseURL == "" {
		return services.Wrap(services.ErrConfiguration, "storing-transcript", "health", "transcript store base URL not configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("transcriptstore: build health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "storing-transcript", "health", "transcript store unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transcriptstore: health status %d", resp.StatusCode)
	}
	return nil
}
