package planner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/plan"
	"reelforge/internal/services"
	"reelforge/internal/services/transcriber"
)

func testPromptInput() PromptInput {
	return PromptInput{
		DurationSeconds: 120,
		Transcript: &transcriber.Transcript{
			Segments: []transcriber.Segment{
				{Start: 0, End: 4.5, Text: "welcome back to the channel"},
				{Start: 4.5, End: 9, Text: "today we are testing the pipeline"},
			},
		},
	}
}

func chatResponse(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	}
	encoded, _ := json.Marshal(payload)
	return string(encoded)
}

func newTestClient(serverURL string, opts ...Option) *Client {
	cfg := config.Planner{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Model:   "test-model",
	}
	base := []Option{
		WithRetryBackoff(time.Millisecond, 10*time.Millisecond),
		WithSleeper(func(time.Duration) {}),
	}
	return NewClient(cfg, append(base, opts...)...)
}

func TestGeneratePlanDecodesModelOutput(t *testing.T) {
	planJSON := `{"zoom_effects":[{"start":5,"end":9,"scale":1.15}],"cuts":[{"start":30,"end":35,"reason":"dead air"}]}`
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(chatResponse(planJSON)))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.GeneratePlan(context.Background(), testPromptInput())
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if len(result.ZoomEffects) != 1 || result.ZoomEffects[0].Scale != 1.15 {
		t.Fatalf("zoom effects = %+v", result.ZoomEffects)
	}
	if len(result.Cuts) != 1 || result.Cuts[0].Reason != "dead air" {
		t.Fatalf("cuts = %+v", result.Cuts)
	}
}

func TestGeneratePlanRetriesServerErrors(t *testing.T) {
	planJSON := `{"transitions":[{"at":10,"style":"whip","duration":0.5}]}`
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(chatResponse(planJSON)))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.GeneratePlan(context.Background(), testPromptInput())
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if len(result.Transitions) != 1 {
		t.Fatalf("transitions = %+v", result.Transitions)
	}
}

func TestGeneratePlanHonorsRetryAfter(t *testing.T) {
	var calls int
	var slept []time.Duration
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(chatResponse(`{}`)))
	}))
	defer server.Close()

	client := NewClient(
		config.Planner{APIKey: "test-key", BaseURL: server.URL, Model: "test-model"},
		WithSleeper(func(d time.Duration) {
			slept = append(slept, d)
		}),
	)
	if _, err := client.GeneratePlan(context.Background(), testPromptInput()); err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if len(slept) != 1 || slept[0] != 2*time.Second {
		t.Fatalf("slept = %v, want one 2s delay", slept)
	}
}

func TestGeneratePlanDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GeneratePlan(context.Background(), testPromptInput())
	if err == nil {
		t.Fatal("expected error for http 400")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestGeneratePlanUndecodablePayloadIsValidationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatResponse("definitely not json")))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GeneratePlan(context.Background(), testPromptInput())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation marker", err)
	}
}

func TestGeneratePlanRequiresAPIKey(t *testing.T) {
	client := NewClient(config.Planner{BaseURL: "http://127.0.0.1:1", Model: "m"})
	_, err := client.GeneratePlan(context.Background(), testPromptInput())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration marker", err)
	}
}

func TestPromptRenderRejectsEmptyTranscript(t *testing.T) {
	input := PromptInput{DurationSeconds: 60, Transcript: &transcriber.Transcript{}}
	if _, err := input.Render(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation marker", err)
	}
}

func TestPromptRenderIncludesTimingsAndTemplates(t *testing.T) {
	rendered, err := testPromptInput().Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(rendered, "[0.0-4.5] welcome back to the channel") {
		t.Fatalf("rendered prompt missing segment timing:\n%s", rendered)
	}
	for name := range plan.AnimationTemplates {
		if !strings.Contains(rendered, name) {
			t.Fatalf("rendered prompt missing template %q", name)
		}
	}
}

func TestDecodeModelJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"plain object", `{"cuts":[]}`, false},
		{"fenced json", "```json\n{\"cuts\":[]}\n```", false},
		{"leading prose", "Here is your plan: {\"cuts\":[]}", false},
		{"empty", "   ", true},
		{"no json at all", "sorry, I cannot help", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var target plan.EditingPlan
			err := DecodeModelJSON(tc.content, &target)
			if tc.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
