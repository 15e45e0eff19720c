// Package silencecut talks to the silence-removal service that performs the
// auto-editing stage: it analyzes the source audio and returns a cut of the
// video with dead air removed.
package silencecut

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
)

const defaultTimeout = 30 * time.Minute

// Client calls the silence-cut HTTP API.
type Client struct {
	baseURL    string
	minSilence float64
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

// NewClient constructs a silence-cut client from configuration.
func NewClient(cfg config.SilenceCut, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		minSilence: cfg.MinSilenceSeconds,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Result describes the edited output produced by the service.
type Result struct {
	OutputPath      string  `json:"output_path"`
	RemovedSeconds  float64 `json:"removed_seconds"`
	SegmentsRemoved int     `json:"segments_removed"`
}

type cutRequest struct {
	InputPath         string  `json:"input_path"`
	OutputPath        string  `json:"output_path"`
	MinSilenceSeconds float64 `json:"min_silence_seconds"`
}

// Cut asks the service to remove silence from input, writing to output.
func (c *Client) Cut(ctx context.Context, input, output string) (Result, error) {
	var result Result
	if c.baseURL == "" {
		return result, services.Wrap(services.ErrConfiguration, "auto-editing", "cut", "silence-cut base URL not configured", nil)
	}
	body, err := json.Marshal(cutRequest{
		InputPath:         input,
		OutputPath:        output,
		MinSilenceSeconds: c.minSilence,
	})
	if err != nil {
		return result, fmt.Errorf("silencecut: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/cut", bytes.NewReader(body))
	if err != nil {
		return result, fmt.Errorf("silencecut: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return result, services.Wrap(services.ErrTransient, "auto-editing", "cut", "silence-cut request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, services.Wrap(services.ErrTransient, "auto-editing", "cut", "read silence-cut response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return result, classifyStatus("cut", resp.StatusCode, payload)
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return result, fmt.Errorf("silencecut: decode response: %w", err)
	}
	if result.OutputPath == "" {
		result.OutputPath = output
	}
	return result, nil
}

// HealthCheck verifies the service is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.baseURL == "" {
		return services.Wrap(services.ErrConfiguration, "auto-editing", "health", "silence-cut base URL not configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("silencecut: build health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "auto-editing", "health", "silence-cut unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("silencecut: health status %d", resp.StatusCode)
	}
	return nil
}

func classifyStatus(op string, status int, body []byte) error {
	detail := fmt.Sprintf("silence-cut %s: http %d: %s", op, status, strings.TrimSpace(string(body)))
	marker := services.ErrTransient
	if status >= 400 && status < 500 && status != http.StatusRequestTimeout && status != http.StatusTooManyRequests {
		marker = services.ErrFatal
	}
	return services.Wrap(marker, "auto-editing", op, detail, nil)
}
