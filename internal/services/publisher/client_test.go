package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelforge/internal/config"
	"reelforge/internal/services"
)

func TestTitleFor(t *testing.T) {
	client := NewClient(config.Publisher{BaseURL: "http://example.com"})
	tests := []struct {
		path string
		want string
	}{
		{"/videos/my_cool-video.final.mp4", "My Cool Video Final"},
		{"/videos/stream.mp4", "Stream"},
		{"/videos/already spaced.mp4", "Already Spaced"},
		{"/videos/___.mp4", "Untitled Video"},
	}
	for _, tc := range tests {
		if got := client.TitleFor(tc.path); got != tc.want {
			t.Fatalf("TitleFor(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestPublishReturnsURLAndAppliesDefaultPrivacy(t *testing.T) {
	var received Upload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/videos" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer pub-key" {
			t.Errorf("authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode upload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"url": "https://videos.example/v/abc123", "id": "abc123"})
	}))
	defer server.Close()

	client := NewClient(config.Publisher{BaseURL: server.URL, APIKey: "pub-key", Privacy: "unlisted"})
	url, err := client.Publish(context.Background(), Upload{
		FilePath: "/work/job-1/final.mp4",
		Title:    "My Video",
		UserID:   "user-1",
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if url != "https://videos.example/v/abc123" {
		t.Fatalf("url = %q", url)
	}
	if received.Privacy != "unlisted" {
		t.Fatalf("privacy = %q, want config default applied", received.Privacy)
	}
}

func TestPublishMissingURLIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "abc123"})
	}))
	defer server.Close()

	client := NewClient(config.Publisher{BaseURL: server.URL})
	_, err := client.Publish(context.Background(), Upload{FilePath: "/work/final.mp4"})
	if !errors.Is(err, services.ErrFatal) {
		t.Fatalf("err = %v, want fatal marker", err)
	}
}

func TestPublishClassifiesStatusCodes(t *testing.T) {
	tests := []struct {
		status int
		marker error
	}{
		{http.StatusForbidden, services.ErrFatal},
		{http.StatusTooManyRequests, services.ErrTransient},
		{http.StatusBadGateway, services.ErrTransient},
	}
	for _, tc := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		client := NewClient(config.Publisher{BaseURL: server.URL})
		_, err := client.Publish(context.Background(), Upload{FilePath: "/work/final.mp4"})
		server.Close()
		if !errors.Is(err, tc.marker) {
			t.Fatalf("status %d: err = %v, want %v", tc.status, err, tc.marker)
		}
	}
}
