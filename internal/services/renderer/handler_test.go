package renderer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"reelforge/internal/config"
	"reelforge/internal/plan"
	"reelforge/internal/queue"
	"reelforge/internal/services/stockfootage"
)

func testPlanWithBRoll() *plan.EditingPlan {
	return &plan.EditingPlan{
		BRoll: []plan.BRollPlacement{
			{TimeRange: plan.TimeRange{Start: 10, End: 14}, SearchQuery: "city skyline"},
			{TimeRange: plan.TimeRange{Start: 30, End: 33}, SearchQuery: "ocean waves"},
		},
	}
}

// newRenderServer fakes the render farm and captures the request it receives.
func newRenderServer(t *testing.T, got *Request) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/render" {
			t.Errorf("render path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			t.Errorf("decode render request: %v", err)
		}
		json.NewEncoder(w).Encode(Result{
			OutputPath:      got.OutputPath,
			DurationSeconds: 88.5,
			FileSizeBytes:   1 << 20,
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func renderJob() *queue.Job {
	return &queue.Job{
		ID:        "job-render",
		InputPath: "/videos/raw.mp4",
		Stages: []queue.StageRecord{
			{Name: queue.StageAutoEditing, Status: queue.StageCompleted, OutputPath: "/work/job-render/cut.mp4"},
		},
	}
}

func savePlan(t *testing.T, p *plan.EditingPlan) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.json")
	if err := plan.Save(p, path); err != nil {
		t.Fatalf("save plan: %v", err)
	}
	return path
}

func TestExecuteRendersWithoutBRollWhenProviderFails(t *testing.T) {
	footage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "provider down", http.StatusInternalServerError)
	}))
	t.Cleanup(footage.Close)

	var got Request
	render := newRenderServer(t, &got)

	handler := NewHandler(
		NewClient(config.Renderer{BaseURL: render.URL}),
		stockfootage.NewClient(config.StockFootage{BaseURL: footage.URL, APIKey: "key"}),
		t.TempDir(),
		nil,
	)

	output, err := handler.Execute(context.Background(), renderJob(), savePlan(t, testPlanWithBRoll()))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasSuffix(output, "final.mp4") {
		t.Fatalf("output = %q, want final.mp4 artifact", output)
	}
	if got.InputPath != "/work/job-render/cut.mp4" {
		t.Fatalf("render input = %q, want auto-editing output", got.InputPath)
	}
	if got.Plan == nil || len(got.Plan.BRoll) != 0 {
		t.Fatalf("rendered broll = %+v, want none after lookup failures", got.Plan)
	}
}

func TestExecuteRendersWithoutBRollWhenFootageDisabled(t *testing.T) {
	var got Request
	render := newRenderServer(t, &got)

	handler := NewHandler(NewClient(config.Renderer{BaseURL: render.URL}), nil, t.TempDir(), nil)

	if _, err := handler.Execute(context.Background(), renderJob(), savePlan(t, testPlanWithBRoll())); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got.Plan == nil || len(got.Plan.BRoll) != 0 {
		t.Fatalf("rendered broll = %+v, want none with footage disabled", got.Plan)
	}
}

func TestExecuteResolvesBRollAssets(t *testing.T) {
	footage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"videos":[{"duration":12,"video_files":[{"link":"https://clips.example/sky.mp4","width":1920,"height":1080}]}]}`))
	}))
	t.Cleanup(footage.Close)

	var got Request
	render := newRenderServer(t, &got)

	handler := NewHandler(
		NewClient(config.Renderer{BaseURL: render.URL}),
		stockfootage.NewClient(config.StockFootage{BaseURL: footage.URL, APIKey: "key"}),
		t.TempDir(),
		nil,
	)

	if _, err := handler.Execute(context.Background(), renderJob(), savePlan(t, testPlanWithBRoll())); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got.Plan == nil || len(got.Plan.BRoll) != 2 {
		t.Fatalf("rendered broll = %+v, want both placements resolved", got.Plan)
	}
	for _, placement := range got.Plan.BRoll {
		if placement.AssetURL != "https://clips.example/sky.mp4" {
			t.Fatalf("asset url = %q", placement.AssetURL)
		}
	}
}
