// Package transcriber talks to the speech-to-text service and models the
// transcript artifact that later stages consume.
package transcriber

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
)

const defaultTimeout = 30 * time.Minute

// Word is a single recognized word with timing.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment is one utterance of the transcript.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words,omitempty"`
}

// Transcript is the full speech-to-text output for a video.
type Transcript struct {
	Language string    `json:"language"`
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// PlainText joins segment text, rebuilding Text when the service omits it.
func (t *Transcript) PlainText() string {
	if strings.TrimSpace(t.Text) != "" {
		return t.Text
	}
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// Save writes the transcript as JSON to path.
func (t *Transcript) Save(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("transcriber: encode transcript: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("transcriber: write transcript: %w", err)
	}
	return nil
}

// Load reads a transcript artifact from path.
func Load(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("transcriber: read transcript: %w", err)
	}
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("transcriber: parse transcript: %w", err)
	}
	return &t, nil
}

// Client calls the transcription HTTP API.
type Client struct {
	baseURL    string
	model      string
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

// NewClient constructs a transcriber client from configuration.
func NewClient(cfg config.Transcriber, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		model:      strings.TrimSpace(cfg.Model),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type transcribeRequest struct {
	InputPath string `json:"input_path"`
	Model     string `json:"model,omitempty"`
}

// Transcribe runs speech-to-text over the media at input.
func (c *Client) Transcribe(ctx context.Context, input string) (*Transcript, error) {
	if c.baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "transcribing", "transcribe", "transcriber base URL not configured", nil)
	}
	body, err := json.Marshal(transcribeRequest{InputPath: input, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("transcriber: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transcribe", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("transcriber: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "transcribing", "transcribe", "transcriber request failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "transcribing", "transcribe", "read transcriber response", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail := fmt.Sprintf("transcriber: http %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
		marker := services.ErrTransient
		if resp.StatusCode >= 400 && resp.StatusCode < 500 &&
			resp.StatusCode != http.StatusRequestTimeout && resp.StatusCode != http.StatusTooManyRequests {
			marker = services.ErrFatal
		}
		return nil, services.Wrap(marker, "transcribing", "transcribe", detail, nil)
	}

	var transcript Transcript
	if err := json.Unmarshal(payload, &transcript); err != nil {
		return nil, fmt.Errorf("transcriber: decode response: %w", err)
	}
	if len(transcript.Segments) == 0 && strings.TrimSpace(transcript.Text) == "" {
		return nil, services.Wrap(services.ErrFatal, "transcribing", "transcribe", "transcriber returned an empty transcript", nil)
	}
	return &transcript, nil
}

// HealthCheck verifies the service is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.baseURL == "" {
		return services.Wrap(services.ErrConfiguration, "transcribing", "health", "transcriber base URL not configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("transcriber: build health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "transcribing", "health", "transcriber unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transcriber: health status %d", resp.StatusCode)
	}
	return nil
}
