// Package renderer talks to the render farm, which applies an editing plan
// to a video and produces the final output file.
package renderer

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
	"reelforge/internal/plan"
	"reelforge/internal/services"
)

const defaultTimeout = 30 * time.Minute

// Client calls the render HTTP API.
type Client struct {
	baseURL    string
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

// NewClient constructs a renderer client from configuration.
func NewClient(cfg config.Renderer, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Request describes one render: the video to edit, the plan to apply, and
// where the output should land.
type Request struct {
	InputPath  string            `json:"input_path"`
	OutputPath string            `json:"output_path"`
	Plan       *plan.EditingPlan `json:"plan"`
}

// Result describes the rendered output.
type Result struct {
	OutputPath      string  `json:"output_path"`
	DurationSeconds float64 `json:"duration_seconds"`
	FileSizeBytes   int64   `json:"file_size_bytes"`
}

// Render applies the plan to the input video.
func (c *Client) Render(ctx context.Context, request Request) (Result, error) {
	var result Result
	if c.baseURL == "" {
		return result, services.Wrap(services.ErrConfiguration, "rendering", "render", "renderer base URL not configured", nil)
	}
	if request.Plan == nil {
		return result, services.Wrap(services.ErrValidation, "rendering", "render", "no editing plan supplied", nil)
	}
	body, err := json.Marshal(request)
	if err != nil {
		return result, fmt.Errorf("renderer: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/render", bytes.NewReader(body))
	if err != nil {
		return result, fmt.Errorf("renderer: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return result, services.Wrap(services.ErrTransient, "rendering", "render", "render request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, services.Wrap(services.ErrTransient, "rendering", "render", "read render response", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail := fmt.Sprintf("renderer: http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
		marker := services.ErrTransient
		if resp.StatusCode >= 400 && resp.StatusCode < 500 &&
			resp.StatusCode != http.StatusRequestTimeout && resp.StatusCode != http.StatusTooManyRequests {
			marker = services.ErrFatal
		}
		return result, services.Wrap(marker, "rendering", "render", detail, nil)
	}

	if err := json.Unmarshal(payload, &result); err != nil {
		return result, fmt.Errorf("renderer: decode response: %w", err)
	}
	if result.OutputPath == "" {
		result.OutputPath = request.OutputPath
	}
	return result, nil
}

// HealthCheck verifies the service is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.baseURL == "" {
		return services.Wrap(services.ErrConfiguration, "rendering", "health", "renderer base URL not configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("renderer: build health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "rendering", "health", "renderer unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("renderer: health status %d", resp.StatusCode)
	}
	return nil
}
