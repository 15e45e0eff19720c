// Package notifications delivers job lifecycle updates over ntfy. Users get
// completion and failure notices on their topic; operators get failure
// alerts with stage detail on a separate topic.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/queue"
)

const userAgent = "ReelForge/0.1.0"

// Message is a user-facing job update.
type Message struct {
	JobID     string
	UserID    string
	Title     string
	Body      string
	ResultRef string
}

// Alert is an operator-facing failure notice.
type Alert struct {
	JobID   string
	Stage   queue.StageName
	Message string
}

// Service defines the notification surface exposed to the orchestrator.
type Service interface {
	NotifyJobCompleted(ctx context.Context, msg Message) error
	NotifyJobFailed(ctx context.Context, msg Message) error
	NotifyJobStatus(ctx context.Context, msg Message) error
	NotifyOperator(ctx context.Context, alert Alert) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no topics are configured, a noop implementation is returned.
func NewService(cfg config.Notifications) Service {
	userTopic := strings.TrimSpace(cfg.UserTopic)
	operatorTopic := strings.TrimSpace(cfg.OperatorTopic)
	if userTopic == "" && operatorTopic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		userTopic:      userTopic,
		operatorTopic:  operatorTopic,
		sendCompletion: cfg.Completion,
		sendErrors:     cfg.Errors,
		sendStatus:     cfg.Status,
		client:         &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	userTopic      string
	operatorTopic  string
	sendCompletion bool
	sendErrors     bool
	sendStatus     bool
	client         *http.Client
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, msg Message) error {
	if !n.sendCompletion {
		return nil
	}
	body := fmt.Sprintf("Your video is ready: %s", strings.TrimSpace(msg.Title))
	if ref := strings.TrimSpace(msg.ResultRef); ref != "" {
		body = fmt.Sprintf("%s\n%s", body, ref)
	}
	return n.send(ctx, n.userTopic, payload{
		title:    "ReelForge - Video Ready",
		message:  body,
		tags:     []string{"reelforge", "job", "completed"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, msg Message) error {
	if !n.sendErrors {
		return nil
	}
	return n.send(ctx, n.userTopic, payload{
		title:   "ReelForge - Processing Failed",
		message: fmt.Sprintf("We could not finish your video: %s", strings.TrimSpace(msg.Body)),
		tags:    []string{"reelforge", "job", "failed"},
	})
}

func (n *ntfyService) NotifyJobStatus(ctx context.Context, msg Message) error {
	if !n.sendStatus {
		return nil
	}
	return n.send(ctx, n.userTopic, payload{
		title:   "ReelForge - Job Update",
		message: strings.TrimSpace(msg.Body),
		tags:    []string{"reelforge", "job", "status"},
	})
}

func (n *ntfyService) NotifyOperator(ctx context.Context, alert Alert) error {
	var builder strings.Builder
	builder.WriteString("Job ")
	builder.WriteString(alert.JobID)
	builder.WriteString(" failed")
	if alert.Stage != "" {
		builder.WriteString(" at stage ")
		builder.WriteString(string(alert.Stage))
	}
	if detail := strings.TrimSpace(alert.Message); detail != "" {
		builder.WriteString(": ")
		builder.WriteString(detail)
	}
	return n.send(ctx, n.operatorTopic, payload{
		title:    "ReelForge - Pipeline Failure",
		message:  builder.String(),
		tags:     []string{"reelforge", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	topic := n.operatorTopic
	if topic == "" {
		topic = n.userTopic
	}
	return n.send(ctx, topic, payload{
		title:    "ReelForge - Test",
		message:  "Notification system test",
		tags:     []string{"reelforge", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, topic string, data payload) error {
	if n == nil || n.client == nil || topic == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, topic, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyJobCompleted(context.Context, Message) error { return nil }
func (noopService) NotifyJobFailed(context.Context, Message) error    { return nil }
func (noopService) NotifyJobStatus(context.Context, Message) error    { return nil }
func (noopService) NotifyOperator(context.Context, Alert) error       { return nil }
func (noopService) TestNotification(context.Context) error            { return nil }
