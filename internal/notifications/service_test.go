package notifications

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reelforge/internal/config"
	"reelforge/internal/queue"
)

type captured struct {
	title    string
	priority string
	body     string
}

func newCapturingServer(t *testing.T, sink *[]captured) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*sink = append(*sink, captured{
			title:    r.Header.Get("Title"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewServiceReturnsNoopWithoutTopics(t *testing.T) {
	svc := NewService(config.Notifications{})
	if _, ok := svc.(noopService); !ok {
		t.Fatalf("service = %T, want noopService", svc)
	}
	if err := svc.NotifyOperator(context.Background(), Alert{JobID: "j1"}); err != nil {
		t.Fatalf("noop notify: %v", err)
	}
}

func TestNotifyJobCompletedSendsResultRef(t *testing.T) {
	var sink []captured
	server := newCapturingServer(t, &sink)

	svc := NewService(config.Notifications{
		UserTopic:  server.URL,
		Completion: true,
		Errors:     true,
	})
	err := svc.NotifyJobCompleted(context.Background(), Message{
		JobID:     "j1",
		Title:     "My Launch Video",
		ResultRef: "https://videos.example/v/abc",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink) != 1 {
		t.Fatalf("sent = %d, want 1", len(sink))
	}
	if !strings.Contains(sink[0].body, "My Launch Video") || !strings.Contains(sink[0].body, "https://videos.example/v/abc") {
		t.Fatalf("body = %q", sink[0].body)
	}
	if sink[0].priority != "high" {
		t.Fatalf("priority = %q, want high", sink[0].priority)
	}
}

func TestNotifyJobCompletedHonorsToggle(t *testing.T) {
	var sink []captured
	server := newCapturingServer(t, &sink)

	svc := NewService(config.Notifications{UserTopic: server.URL, Completion: false})
	if err := svc.NotifyJobCompleted(context.Background(), Message{JobID: "j1"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink) != 0 {
		t.Fatalf("sent = %d, want 0 when completion notices are off", len(sink))
	}
}

func TestNotifyJobStatusHonorsToggle(t *testing.T) {
	var sink []captured
	server := newCapturingServer(t, &sink)

	svc := NewService(config.Notifications{UserTopic: server.URL, Status: true})
	err := svc.NotifyJobStatus(context.Background(), Message{
		JobID:  "j1",
		Body:   "Your video is processing (stage transcribing, 25%)",
		UserID: "user-1",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink) != 1 {
		t.Fatalf("sent = %d, want 1", len(sink))
	}
	if sink[0].title != "ReelForge - Job Update" {
		t.Fatalf("title = %q", sink[0].title)
	}
	if !strings.Contains(sink[0].body, "transcribing") {
		t.Fatalf("body = %q", sink[0].body)
	}

	sink = nil
	quiet := NewService(config.Notifications{UserTopic: server.URL, Status: false})
	if err := quiet.NotifyJobStatus(context.Background(), Message{JobID: "j1", Body: "update"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink) != 0 {
		t.Fatalf("sent = %d, want 0 when status notices are off", len(sink))
	}
}

func TestNotifyOperatorIncludesStage(t *testing.T) {
	var sink []captured
	server := newCapturingServer(t, &sink)

	svc := NewService(config.Notifications{OperatorTopic: server.URL})
	err := svc.NotifyOperator(context.Background(), Alert{
		JobID:   "j2",
		Stage:   queue.StageTranscribing,
		Message: "asr unavailable",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink) != 1 {
		t.Fatalf("sent = %d, want 1", len(sink))
	}
	if !strings.Contains(sink[0].body, "transcribing") || !strings.Contains(sink[0].body, "asr unavailable") {
		t.Fatalf("body = %q", sink[0].body)
	}
}

func TestSendReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	svc := NewService(config.Notifications{OperatorTopic: server.URL})
	err := svc.NotifyOperator(context.Background(), Alert{JobID: "j3", Message: "boom"})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("err = %v, want ntfy 503 error", err)
	}
}
