package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reelforge/internal/api"
	"reelforge/internal/queue"
	"reelforge/internal/stage"
	"reelforge/internal/testsupport"
	"reelforge/internal/workflow"
)

type stubHandler struct {
	name queue.StageName
}

func (s *stubHandler) Name() queue.StageName { return s.name }

func (s *stubHandler) Execute(_ context.Context, job *queue.Job, _ string) (string, error) {
	return fmt.Sprintf("/work/%s/%s.out", job.ID, s.name), nil
}

func (s *stubHandler) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(s.name, "ok")
}

func newTestDaemon(t *testing.T) (*Daemon, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.APIBind = "" // handlers are exercised directly
	store := testsupport.MustOpenStore(t, cfg)

	handlers := make([]stage.Handler, 0, len(queue.ExecutableStages()))
	for _, name := range queue.ExecutableStages() {
		handlers = append(handlers, &stubHandler{name: name})
	}
	orch, err := workflow.New(cfg, store, nil, nil, handlers...)
	if err != nil {
		t.Fatalf("workflow.New: %v", err)
	}
	d, err := New(cfg, store, orch, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d, store
}

func newTestServer(t *testing.T, d *Daemon) *apiServer {
	t.Helper()
	return &apiServer{daemon: d, logger: d.logger}
}

func TestHandleJobsSubmitAndGet(t *testing.T) {
	d, _ := newTestDaemon(t)
	srv := newTestServer(t, d)

	body := `{"user_id":"user-1","input_path":"/videos/demo.mp4","duration_seconds":300,"width":1920,"height":1080}`
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.handleJobs(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d body %s", rec.Code, rec.Body.String())
	}
	var created workflow.JobView
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID == "" || created.Status != queue.JobQueued {
		t.Fatalf("created = %+v", created)
	}
	if created.CurrentStage != queue.StageUploaded || created.Progress != 0 {
		t.Fatalf("projection = stage %s progress %d", created.CurrentStage, created.Progress)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/jobs/"+created.ID, nil)
	getRec := httptest.NewRecorder()
	srv.handleJob(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status = %d", getRec.Code)
	}
	var fetched workflow.JobView
	if err := json.Unmarshal(getRec.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode get response: %v", err)
	}
	if fetched.ID != created.ID || len(fetched.Stages) != len(queue.StageOrder()) {
		t.Fatalf("fetched = %+v", fetched)
	}
}

func TestHandleJobsRejectsInvalidSubmission(t *testing.T) {
	d, _ := newTestDaemon(t)
	srv := newTestServer(t, d)

	tests := []struct {
		name string
		body string
	}{
		{"missing user", `{"input_path":"/videos/demo.mp4","duration_seconds":300}`},
		{"relative path", `{"user_id":"u","input_path":"demo.mp4","duration_seconds":300}`},
		{"zero duration", `{"user_id":"u","input_path":"/videos/demo.mp4"}`},
		{"bad json", `{`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			srv.handleJobs(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandleJobsDuplicateIDConflicts(t *testing.T) {
	d, _ := newTestDaemon(t)
	srv := newTestServer(t, d)

	body := `{"id":"dup","user_id":"u","input_path":"/videos/demo.mp4","duration_seconds":300}`
	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/api/jobs", strings.NewReader(body))
		rec := httptest.NewRecorder()
		srv.handleJobs(rec, req)
		if rec.Code != want {
			t.Fatalf("submit %d status = %d, want %d", i, rec.Code, want)
		}
	}
}

func TestHandleJobsListFiltersByStatus(t *testing.T) {
	d, store := newTestDaemon(t)
	srv := newTestServer(t, d)
	ctx := context.Background()

	testsupport.SeedJob(t, store, "job-a")
	testsupport.SeedJob(t, store, "job-b")
	if _, err := store.DequeueNext(ctx); err != nil {
		t.Fatalf("dequeue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/jobs?status=queued", nil)
	rec := httptest.NewRecorder()
	srv.handleJobs(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var parsed struct {
		Jobs []workflow.JobView `json:"jobs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(parsed.Jobs) != 1 || parsed.Jobs[0].ID != "job-b" {
		t.Fatalf("jobs = %+v", parsed.Jobs)
	}

	badReq := httptest.NewRequest(http.MethodGet, "/api/jobs?status=bogus", nil)
	badRec := httptest.NewRecorder()
	srv.handleJobs(badRec, badReq)
	if badRec.Code != http.StatusBadRequest {
		t.Fatalf("bogus status filter = %d, want 400", badRec.Code)
	}
}

func TestHandleJobMissingAndRetry(t *testing.T) {
	d, store := newTestDaemon(t)
	srv := newTestServer(t, d)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/ghost", nil)
	rec := httptest.NewRecorder()
	srv.handleJob(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing job status = %d, want 404", rec.Code)
	}

	testsupport.SeedJob(t, store, "job-retry")
	if _, err := store.DequeueNext(ctx); err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if err := store.UpdateStage(ctx, "job-retry", queue.StageAutoEditing, queue.StageUpdate{Status: queue.StageFailed, Error: "cut failed"}); err != nil {
		t.Fatalf("fail stage: %v", err)
	}
	if err := store.UpdateJobStatus(ctx, "job-retry", queue.JobFailed); err != nil {
		t.Fatalf("fail job: %v", err)
	}

	retryReq := httptest.NewRequest(http.MethodPost, "/api/jobs/job-retry/retry", nil)
	retryRec := httptest.NewRecorder()
	srv.handleJob(retryRec, retryReq)
	if retryRec.Code != http.StatusOK {
		t.Fatalf("retry status = %d body %s", retryRec.Code, retryRec.Body.String())
	}

	job, err := store.GetJob(ctx, "job-retry")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Status != queue.JobQueued {
		t.Fatalf("status = %s, want queued", job.Status)
	}
}

func TestSubmitGeneratesID(t *testing.T) {
	d, _ := newTestDaemon(t)
	view, err := d.Jobs().Submit(context.Background(), api.SubmitRequest{
		UserID:          "user-1",
		InputPath:       "/videos/demo.mp4",
		DurationSeconds: 120,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(view.ID) < 16 {
		t.Fatalf("generated id = %q", view.ID)
	}
}
