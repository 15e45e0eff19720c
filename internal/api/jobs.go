// Package api exposes job operations shared by the daemon's HTTP surface
// and the CLI: submission, status projection, listing, and operator retry.
package api

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"reelforge/internal/queue"
	"reelforge/internal/workflow"
)

// JobService wraps the job store with request validation and view building.
type JobService struct {
	store *queue.Store
}

// NewJobService constructs a JobService.
func NewJobService(store *queue.Store) *JobService {
	return &JobService{store: store}
}

// SubmitRequest describes a new job. ID is optional; one is generated when
// absent.
type SubmitRequest struct {
	ID              string  `json:"id,omitempty"`
	UserID          string  `json:"user_id"`
	InputPath       string  `json:"input_path"`
	DurationSeconds float64 `json:"duration_seconds"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Format          string  `json:"format,omitempty"`
	Checksum        string  `json:"checksum,omitempty"`
}

func (r *SubmitRequest) validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("user_id is required")
	}
	if strings.TrimSpace(r.InputPath) == "" {
		return fmt.Errorf("input_path is required")
	}
	if !filepath.IsAbs(r.InputPath) {
		return fmt.Errorf("input_path must be absolute")
	}
	if r.DurationSeconds <= 0 {
		return fmt.Errorf("duration_seconds must be positive")
	}
	return nil
}

// Submit validates and enqueues a new job.
func (s *JobService) Submit(ctx context.Context, req SubmitRequest) (workflow.JobView, error) {
	if err := req.validate(); err != nil {
		return workflow.JobView{}, err
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}
	job, err := s.store.CreateJob(ctx, queue.NewJobParams{
		ID:        id,
		UserID:    strings.TrimSpace(req.UserID),
		InputPath: req.InputPath,
		Media: queue.MediaInfo{
			DurationSeconds: req.DurationSeconds,
			Width:           req.Width,
			Height:          req.Height,
			Format:          strings.TrimSpace(req.Format),
			Checksum:        strings.TrimSpace(req.Checksum),
		},
	})
	if err != nil {
		return workflow.JobView{}, err
	}
	return workflow.ProjectJob(job), nil
}

// Get returns the status projection for one job.
func (s *JobService) Get(ctx context.Context, id string) (workflow.JobView, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return workflow.JobView{}, err
	}
	if job == nil {
		return workflow.JobView{}, fmt.Errorf("job %s: %w", id, queue.ErrNotFound)
	}
	return workflow.ProjectJob(job), nil
}

// List returns projections for jobs, optionally filtered by status names.
// Unknown status names are rejected.
func (s *JobService) List(ctx context.Context, statusNames ...string) ([]workflow.JobView, error) {
	var statuses []queue.JobStatus
	for _, name := range statusNames {
		if strings.TrimSpace(name) == "" {
			continue
		}
		status, ok := queue.ParseJobStatus(name)
		if !ok {
			return nil, fmt.Errorf("unknown job status %q", name)
		}
		statuses = append(statuses, status)
	}
	jobs, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	views := make([]workflow.JobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, workflow.ProjectJob(job))
	}
	return views, nil
}

// Retry requeues a failed job for another pass.
func (s *JobService) Retry(ctx context.Context, id string) error {
	return s.store.ResetFailedStages(ctx, id)
}

// Stats returns job counts grouped by lifecycle status.
func (s *JobService) Stats(ctx context.Context) (map[queue.JobStatus]int, error) {
	return s.store.Stats(ctx)
}
