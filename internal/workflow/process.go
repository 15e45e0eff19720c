package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"reelforge/internal/logging"
	"reelforge/internal/notifications"
	"reelforge/internal/queue"
	"reelforge/internal/services"
)

// processJob walks the job through every remaining stage. Completed stages
// are skipped, so a reclaimed job resumes from its first unfinished stage
// instead of starting over.
func (o *Orchestrator) processJob(ctx context.Context, logger *slog.Logger, job *queue.Job) {
	logger = logger.With(logging.String(logging.FieldJobID, job.ID))
	ctx = services.WithJobID(ctx, job.ID)

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.heartbeatLoop(hbCtx, job.ID)
	}()

	logger.InfoContext(ctx, "processing job",
		logging.String(logging.FieldStage, string(job.CurrentStage())),
		logging.Int("progress", job.Progress()),
	)
	if err := o.notifier.NotifyJobStatus(ctx, notifications.Message{
		JobID:  job.ID,
		UserID: job.UserID,
		Body:   fmt.Sprintf("Your video is processing (stage %s, %d%%)", job.CurrentStage(), job.Progress()),
	}); err != nil {
		logger.DebugContext(ctx, "user status notice failed", logging.Error(err))
	}

	for _, name := range queue.ExecutableStages() {
		rec, ok := job.StageByName(name)
		if !ok {
			o.failJob(ctx, logger, job, name, services.Wrap(services.ErrFatal, string(name), "checkpoint", "stage record missing", nil))
			return
		}
		if rec.Status == queue.StageCompleted {
			logger.DebugContext(ctx, "stage already complete, skipping",
				logging.String(logging.FieldStage, string(name)))
			continue
		}
		if ctx.Err() != nil {
			// Shutdown mid-job: leave the claim for the stale monitor.
			return
		}

		output, err := o.executeStage(ctx, logger, job, name)
		if err != nil {
			o.failJob(ctx, logger, job, name, err)
			return
		}

		if err := o.store.UpdateStage(ctx, job.ID, name, queue.StageUpdate{
			Status:     queue.StageCompleted,
			OutputPath: output,
		}); err != nil {
			o.failJob(ctx, logger, job, name, err)
			return
		}
		rec.Status = queue.StageCompleted
		rec.OutputPath = output
		logger.InfoContext(ctx, "stage completed",
			logging.String(logging.FieldStage, string(name)),
			logging.Int("progress", job.Progress()),
		)
	}

	o.completeJob(ctx, logger, job)
}

// executeStage marks the stage in-progress and runs its handler under the
// retry policy, with an optional per-stage deadline.
func (o *Orchestrator) executeStage(ctx context.Context, logger *slog.Logger, job *queue.Job, name queue.StageName) (string, error) {
	if err := o.store.UpdateStage(ctx, job.ID, name, queue.StageUpdate{Status: queue.StageInProgress}); err != nil {
		return "", err
	}
	if rec, ok := job.StageByName(name); ok {
		rec.Status = queue.StageInProgress
	}

	handler := o.handlers[name]
	input := job.ArtifactBefore(name)
	stageCtx := services.WithStage(ctx, string(name))
	stageCtx = services.WithRequestID(stageCtx, uuid.NewString())
	stageLogger := logging.WithContext(stageCtx, logger)

	stageLogger.InfoContext(stageCtx, "stage started", logging.String("input", input))

	var output string
	err := o.retry.Do(stageCtx, stageLogger, string(name), func(attemptCtx context.Context) error {
		if timeout := time.Duration(o.cfg.Workflow.StageTimeout) * time.Second; timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(attemptCtx, timeout)
			defer cancel()
		}
		result, execErr := handler.Execute(attemptCtx, job, input)
		if execErr != nil {
			return execErr
		}
		output = result
		return nil
	})
	if err != nil {
		return "", err
	}
	return output, nil
}

// failJob isolates a partial failure: the stage and job are marked failed
// with the stage recorded for diagnostics, the operator alert is always
// attempted, and the user notice is best-effort.
func (o *Orchestrator) failJob(ctx context.Context, logger *slog.Logger, job *queue.Job, name queue.StageName, cause error) {
	logger.ErrorContext(ctx, "stage failed",
		logging.String(logging.FieldStage, string(name)),
		logging.Error(cause),
	)

	if err := o.store.UpdateStage(ctx, job.ID, name, queue.StageUpdate{
		Status: queue.StageFailed,
		Error:  cause.Error(),
	}); err != nil {
		logger.ErrorContext(ctx, "record stage failure", logging.Error(err))
	}
	if err := o.store.SetJobError(ctx, job.ID, name, cause.Error(), ""); err != nil {
		logger.ErrorContext(ctx, "record job error", logging.Error(err))
	}
	if err := o.store.UpdateJobStatus(ctx, job.ID, queue.JobFailed); err != nil {
		logger.ErrorContext(ctx, "mark job failed", logging.Error(err))
	}

	if err := o.notifier.NotifyOperator(ctx, notifications.Alert{
		JobID:   job.ID,
		Stage:   name,
		Message: cause.Error(),
	}); err != nil {
		logger.ErrorContext(ctx, "operator alert failed", logging.Error(err))
	}
	if err := o.notifier.NotifyJobFailed(ctx, notifications.Message{
		JobID:  job.ID,
		UserID: job.UserID,
		Body:   cause.Error(),
	}); err != nil {
		logger.WarnContext(ctx, "user failure notice failed", logging.Error(err))
	}
}

// completeJob seals a job whose stages all finished: the terminal stage is
// checkpointed, the published reference is recorded, and the user notified.
func (o *Orchestrator) completeJob(ctx context.Context, logger *slog.Logger, job *queue.Job) {
	resultRef := ""
	if rec, ok := job.StageByName(queue.StageUploading); ok {
		resultRef = rec.OutputPath
	}

	if err := o.store.UpdateStage(ctx, job.ID, queue.StageDone, queue.StageUpdate{
		Status:     queue.StageCompleted,
		OutputPath: resultRef,
	}); err != nil {
		o.failJob(ctx, logger, job, queue.StageDone, err)
		return
	}
	if resultRef != "" {
		if err := o.store.SetResultRef(ctx, job.ID, resultRef); err != nil {
			o.failJob(ctx, logger, job, queue.StageDone, err)
			return
		}
	}
	if err := o.store.UpdateJobStatus(ctx, job.ID, queue.JobCompleted); err != nil {
		o.failJob(ctx, logger, job, queue.StageDone, err)
		return
	}

	logger.InfoContext(ctx, "job completed", logging.String("result_ref", resultRef))

	if err := o.notifier.NotifyJobCompleted(ctx, notifications.Message{
		JobID:     job.ID,
		UserID:    job.UserID,
		Title:     job.InputPath,
		ResultRef: resultRef,
	}); err != nil {
		logger.WarnContext(ctx, "user completion notice failed", logging.Error(err))
	}
}
