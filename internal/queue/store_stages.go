package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// StageUpdate describes a stage status change plus its optional artifacts.
type StageUpdate struct {
	Status     StageStatus
	OutputPath string
	Error      string
}

// UpdateStage moves one stage record through its lifecycle. Transitions are
// forward-only: pending -> in-progress -> completed|failed. Re-asserting the
// current status is allowed (resume after a crash re-marks an in-progress
// stage), but moving backward or out of a terminal state is rejected.
func (s *Store) UpdateStage(ctx context.Context, jobID string, name StageName, update StageUpdate) error {
	if _, ok := StageIndex(name); !ok {
		return fmt.Errorf("stage %q: %w", name, ErrUnknownStage)
	}
	if update.Status.rank() < 0 {
		return fmt.Errorf("stage status %q: %w", update.Status, ErrInvalidTransition)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin stage update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var (
		currentStr string
		startedRaw sql.NullString
	)
	err = tx.QueryRowContext(
		ctx,
		`SELECT status, started_at FROM job_stages WHERE job_id = ? AND name = ?`,
		jobID, name,
	).Scan(&currentStr, &startedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("job %s stage %s: %w", jobID, name, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("read stage: %w", err)
	}

	current := StageStatus(currentStr)
	if update.Status.rank() < current.rank() {
		return fmt.Errorf("stage %s: %s -> %s: %w", name, current, update.Status, ErrInvalidTransition)
	}
	if current.Terminal() && update.Status != current {
		return fmt.Errorf("stage %s: %s -> %s: %w", name, current, update.Status, ErrInvalidTransition)
	}

	now := time.Now().UTC().Format(timeFormat)
	startedAt := any(nil)
	if startedRaw.Valid {
		startedAt = startedRaw.String
	}
	if update.Status != StagePending && startedAt == nil {
		startedAt = now
	}
	endedAt := any(nil)
	if update.Status.Terminal() {
		endedAt = now
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE job_stages SET status = ?, started_at = ?, ended_at = ?, output_path = ?, error_message = ?
         WHERE job_id = ? AND name = ?`,
		update.Status,
		startedAt,
		endedAt,
		nullableString(update.OutputPath),
		nullableString(update.Error),
		jobID, name,
	); err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	if _, err := tx.ExecContext(
		ctx,
		`UPDATE jobs SET updated_at = ? WHERE id = ?`,
		now, jobID,
	); err != nil {
		return fmt.Errorf("touch job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit stage update: %w", err)
	}
	return nil
}

// ResetFailedStages returns a failed job to the queue for another attempt.
// Failed stage rows go back to pending so the orchestrator re-runs them;
// completed stage rows stay untouched and are skipped on resume.
func (s *Store) ResetFailedStages(ctx context.Context, jobID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin retry: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC().Format(timeFormat)
	res, err := tx.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, error_stage = NULL, error_message = NULL,
             error_stack = NULL, error_at = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		JobQueued, now, jobID, JobFailed,
	)
	if err != nil {
		return fmt.Errorf("requeue failed job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %s is not failed: %w", jobID, ErrNotFound)
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE job_stages SET status = ?, started_at = NULL, ended_at = NULL, error_message = NULL
         WHERE job_id = ? AND status IN (?, ?)`,
		StagePending, jobID, StageFailed, StageInProgress,
	); err != nil {
		return fmt.Errorf("reset failed stages: %w", err)
	}

	return tx.Commit()
}
