package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reelforge/internal/queue"
	"reelforge/internal/workflow"
)

const clientTimeout = 30 * time.Second

// DaemonStatus mirrors the daemon's /api/status payload.
type DaemonStatus struct {
	Running      bool                  `json:"running"`
	QueueDBPath  string                `json:"queue_db_path"`
	LockFilePath string                `json:"lock_file_path"`
	Health       workflow.HealthReport `json:"health"`
}

// Client talks to a running daemon over its HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client for the daemon listening at bind
// (host:port, as configured under paths.api_bind).
func NewClient(bind string) *Client {
	bind = strings.TrimSpace(bind)
	base := bind
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: clientTimeout},
	}
}

// Available reports whether a daemon is answering on the configured address.
func (c *Client) Available(ctx context.Context) bool {
	if c.baseURL == "" {
		return false
	}
	_, err := c.Status(ctx)
	return err == nil
}

// Status fetches daemon runtime state and pipeline health.
func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var status DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &status)
	return status, err
}

// Submit enqueues a new job through the daemon.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (workflow.JobView, error) {
	var view workflow.JobView
	err := c.do(ctx, http.MethodPost, "/api/jobs", req, &view)
	return view, err
}

// Get fetches the status projection for one job.
func (c *Client) Get(ctx context.Context, id string) (workflow.JobView, error) {
	var view workflow.JobView
	err := c.do(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(id), nil, &view)
	return view, err
}

// List fetches job projections, optionally filtered by status names.
func (c *Client) List(ctx context.Context, statusNames ...string) ([]workflow.JobView, error) {
	path := "/api/jobs"
	if len(statusNames) > 0 {
		values := url.Values{}
		for _, name := range statusNames {
			if strings.TrimSpace(name) != "" {
				values.Add("status", name)
			}
		}
		if encoded := values.Encode(); encoded != "" {
			path += "?" + encoded
		}
	}
	var parsed struct {
		Jobs []workflow.JobView `json:"jobs"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &parsed); err != nil {
		return nil, err
	}
	return parsed.Jobs, nil
}

// Retry asks the daemon to requeue a failed job.
func (c *Client) Retry(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/jobs/"+url.PathEscape(id)+"/retry", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, result any) error {
	if c.baseURL == "" {
		return fmt.Errorf("daemon api address is not configured")
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("daemon request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read daemon response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return apiError(resp.StatusCode, data)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("decode daemon response: %w", err)
	}
	return nil
}

func apiError(status int, data []byte) error {
	message := strings.TrimSpace(string(data))
	var parsed struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &parsed); err == nil && parsed.Error != "" {
		message = parsed.Error
	}
	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", message, queue.ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", message, queue.ErrAlreadyExists)
	default:
		return fmt.Errorf("daemon returned %d: %s", status, message)
	}
}
