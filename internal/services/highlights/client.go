// Package highlights talks to the highlight-detection service, which scores
// transcript passages for audience interest.
package highlights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/services"
	"reelforge/internal/services/transcriber"
)

const defaultTimeout = time.Minute

// Highlight is one scored passage of the video.
type Highlight struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Label string  `json:"label,omitempty"`
	Score float64 `json:"score"`
}

// Detection is the artifact written by the detecting-highlights stage.
type Detection struct {
	Highlights []Highlight `json:"highlights"`
}

// Save writes the detection as JSON to path.
func (d *Detection) Save(path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("highlights: encode detection: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("highlights: write detection: %w", err)
	}
	return nil
}

// Load reads a detection artifact from path.
func Load(path string) (*Detection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("highlights: read detection: %w", err)
	}
	var d Detection
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("highlights: parse detection: %w", err)
	}
	return &d, nil
}

// Client calls the highlight-detection HTTP API.
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

// NewClient constructs a highlight-detection client from configuration.
func NewClient(cfg config.Highlights, opts ...Option) *Client {
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

type detectRequest struct {
	Transcript *transcriber.Transcript `json:"transcript"`
}

// Detect scores the transcript for highlight-worthy passages. An empty result
// is valid: not every video has a standout moment.
func (c *Client) Detect(ctx context.Context, transcript *transcriber.Transcript) (*Detection, error) {
	if c.baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "detecting-highlights", "detect", "highlights base URL not configured", nil)
	}
	body, err := json.Marshal(detectRequest{Transcript: transcript})
	if err != nil {
		return nil, fmt.Errorf("highlights: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/detect", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("highlights: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "detecting-highlights", "detect", "highlights request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "detecting-highlights", "detect", "read highlights response", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail := fmt.Sprintf("highlights: http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
		marker := services.ErrTransient
		if resp.StatusCode >= 400 && resp.StatusCode < 500 &&
			resp.StatusCode != http.StatusRequestTimeout && resp.StatusCode != http.StatusTooManyRequests {
			marker = services.ErrFatal
		}
		return nil, services.Wrap(marker, "detecting-highlights", "detect", detail, nil)
	}

	var detection Detection
	if err := json.Unmarshal(payload, &detection); err != nil {
		return nil, fmt.Errorf("highlights: decode response: %w", err)
	}
	return &detection, nil
}

// HealthCheck verifies the service is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.baseURL == "" {
		return services.Wrap(services.ErrConfiguration, "detecting-highlights", "health", "highlights base URL not configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("highlights: build health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "detecting-highlights", "health", "highlights unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("highlights: health status %d", resp.StatusCode)
	}
	return nil
}
