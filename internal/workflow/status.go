package workflow

import (
	"context"
	"fmt"
	"time"

	"reelforge/internal/queue"
	"reelforge/internal/stage"
)

// StageView is one stage's checkpoint as shown to clients.
type StageView struct {
	Name       queue.StageName   `json:"name"`
	Status     queue.StageStatus `json:"status"`
	StartedAt  *time.Time        `json:"started_at,omitempty"`
	EndedAt    *time.Time        `json:"ended_at,omitempty"`
	OutputPath string            `json:"output_path,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// JobView is the status projection for one job: its lifecycle state, the
// derived current stage and progress, and the full stage ledger.
type JobView struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Status       queue.JobStatus `json:"status"`
	CurrentStage queue.StageName `json:"current_stage"`
	Progress     int             `json:"progress"`
	InputPath    string          `json:"input_path"`
	ResultRef    string          `json:"result_ref,omitempty"`
	ErrorStage   string          `json:"error_stage,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Stages       []StageView     `json:"stages,omitempty"`
}

// ProjectJob derives a JobView from a job's stage history.
func ProjectJob(job *queue.Job) JobView {
	view := JobView{
		ID:           job.ID,
		UserID:       job.UserID,
		Status:       job.Status,
		CurrentStage: job.CurrentStage(),
		Progress:     job.Progress(),
		InputPath:    job.InputPath,
		ResultRef:    job.ResultRef,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	}
	if job.Error != nil {
		view.ErrorStage = string(job.Error.Stage)
		view.ErrorMessage = job.Error.Message
	}
	for _, rec := range job.Stages {
		view.Stages = append(view.Stages, StageView{
			Name:       rec.Name,
			Status:     rec.Status,
			StartedAt:  rec.StartedAt,
			EndedAt:    rec.EndedAt,
			OutputPath: rec.OutputPath,
			Error:      rec.Error,
		})
	}
	return view
}

// JobStatus returns the status projection for one job.
func (o *Orchestrator) JobStatus(ctx context.Context, id string) (JobView, error) {
	job, err := o.store.GetJob(ctx, id)
	if err != nil {
		return JobView{}, err
	}
	if job == nil {
		return JobView{}, fmt.Errorf("job %s: %w", id, queue.ErrNotFound)
	}
	return ProjectJob(job), nil
}

// ListJobs returns projections for all jobs matching the given statuses.
func (o *Orchestrator) ListJobs(ctx context.Context, statuses ...queue.JobStatus) ([]JobView, error) {
	jobs, err := o.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	views := make([]JobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, ProjectJob(job))
	}
	return views, nil
}

// RetryJob requeues a failed job, resetting its failed stages to pending.
func (o *Orchestrator) RetryJob(ctx context.Context, id string) error {
	return o.store.ResetFailedStages(ctx, id)
}

// HealthReport aggregates queue counts and per-stage dependency checks.
type HealthReport struct {
	Queue  queue.HealthSummary `json:"queue"`
	Stages []stage.Health      `json:"stages"`
}

// Ready reports whether every stage dependency passed its check.
func (r HealthReport) Ready() bool {
	for _, h := range r.Stages {
		if !h.Ready {
			return false
		}
	}
	return true
}

// Health runs every stage handler's dependency check and summarizes the queue.
func (o *Orchestrator) Health(ctx context.Context) (HealthReport, error) {
	summary, err := o.store.Health(ctx)
	if err != nil {
		return HealthReport{}, err
	}
	report := HealthReport{Queue: summary}
	for _, name := range queue.ExecutableStages() {
		handler, ok := o.handlers[name]
		if !ok {
			continue
		}
		report.Stages = append(report.Stages, handler.HealthCheck(ctx))
	}
	return report, nil
}
