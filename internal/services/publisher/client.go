// Package publisher uploads finished videos to the hosting platform and
// returns the public reference recorded on the job.
package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelforge/internal/config"
	"reelforge/internal/services"
)

const defaultTimeout = 30 * time.Minute

// Client calls the publishing HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	privacy    string
	httpClient *http.Client
	titleCaser cases.Caser
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

// NewClient constructs a publisher client from configuration.
func NewClient(cfg config.Publisher, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		privacy:    strings.TrimSpace(cfg.Privacy),
		httpClient: &http.Client{Timeout: timeout},
		titleCaser: cases.Title(language.English),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Upload describes one publish request.
type Upload struct {
	FilePath string `json:"file_path"`
	Title    string `json:"title"`
	UserID   string `json:"user_id"`
	Privacy  string `json:"privacy"`
}

type publishResponse struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

// TitleFor derives a presentable video title from the source filename:
// separators become spaces and words are title-cased.
func (c *Client) TitleFor(inputPath string) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	base = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		return "Untitled Video"
	}
	return c.titleCaser.String(base)
}

// Publish uploads the video and returns its public URL.
func (c *Client) Publish(ctx context.Context, upload Upload) (string, error) {
	if c.baseURL == "" {
		return "", services.Wrap(services.ErrConfiguration, "uploading", "publish", "publisher base URL not configured", nil)
	}
	if upload.Privacy == "" {
		upload.Privacy = c.privacy
	}
	body, err := json.Marshal(upload)
	if err != nil {
		return "", fmt.Errorf("publisher: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/videos", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("publisher: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "uploading", "publish", "publish request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "uploading", "publish", "read publish response", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail := fmt.Sprintf("publisher: http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
		marker := services.ErrTransient
		if resp.StatusCode >= 400 && resp.StatusCode < 500 &&
			resp.StatusCode != http.StatusRequestTimeout && resp.StatusCode != http.StatusTooManyRequests {
			marker = services.ErrFatal
		}
		return "", services.Wrap(marker, "uploading", "publish", detail, nil)
	}

	var parsed publishResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("publisher: decode response: %w", err)
	}
	if strings.TrimSpace(parsed.URL) == "" {
		return "", services.Wrap(services.ErrFatal, "uploading", "publish", "publisher returned no url", nil)
	}
	return parsed.URL, nil
}

// HealthCheck verifies the service is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.baseURL == "" {
		return services.Wrap(services.ErrConfiguration, "uploading", "health", "publisher base URL not configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("publisher: build health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "uploading", "health", "publisher unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("publisher: health status %d", resp.StatusCode)
	}
	return nil
}
