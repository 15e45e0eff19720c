// Package stockfootage searches a stock video provider for b-roll clips
// matching the search queries in an editing plan. B-roll is decorative, so
// every operation here is best-effort: the render proceeds without clips
// when the provider is down or returns nothing.
package stockfootage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/services"
)

const defaultTimeout = time.Minute

// Clip is one downloadable stock video.
type Clip struct {
	URL             string
	Width           int
	Height          int
	DurationSeconds float64
}

// Client calls the stock footage search API.
type Client struct {
	baseURL    string
	apiKey     string
	maxClips   int
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

// NewClient constructs a stock footage client from configuration.
func NewClient(cfg config.StockFootage, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		maxClips:   cfg.MaxClips,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// searchResponse mirrors the Pexels video search schema.
type searchResponse struct {
	Videos []struct {
		Duration   float64 `json:"duration"`
		VideoFiles []struct {
			Link   string `json:"link"`
			Width  int    `json:"width"`
			Height int    `json:"height"`
		} `json:"video_files"`
	} `json:"videos"`
}

// Search finds clips for a query. Missing configuration and empty result
// sets both return no clips without error.
func (c *Client) Search(ctx context.Context, query string) ([]Clip, error) {
	query = strings.TrimSpace(query)
	if query == "" || c.baseURL == "" || c.apiKey == "" {
		return nil, nil
	}

	perPage := c.maxClips
	if perPage <= 0 {
		perPage = 1
	}
	endpoint := c.baseURL + "/search?query=" + url.QueryEscape(query) +
		"&per_page=" + strconv.Itoa(perPage) + "&orientation=landscape"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("stockfootage: build request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "rendering", "broll-search", "stock footage request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "rendering", "broll-search", "read stock footage response", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail := fmt.Sprintf("stock footage: http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
		return nil, services.Wrap(services.ErrTransient, "rendering", "broll-search", detail, nil)
	}

	var parsed searchResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("stockfootage: decode response: %w", err)
	}

	clips := make([]Clip, 0, len(parsed.Videos))
	for _, video := range parsed.Videos {
		best := Clip{DurationSeconds: video.Duration}
		for _, file := range video.VideoFiles {
			if file.Link == "" {
				continue
			}
			if file.Width*file.Height > best.Width*best.Height {
				best = Clip{
					URL:             file.Link,
					Width:           file.Width,
					Height:          file.Height,
					DurationSeconds: video.Duration,
				}
			}
		}
		if best.URL != "" {
			clips = append(clips, best)
		}
	}
	return clips, nil
}
