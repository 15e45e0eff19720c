package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DequeueNext claims the oldest queued job for a worker. The claim is a
// guarded status flip: if another worker got there first the UPDATE affects
// zero rows and we retry with the next candidate. Returns (nil, nil) when the
// queue is empty.
func (s *Store) DequeueNext(ctx context.Context) (*Job, error) {
	for {
		var id string
		err := s.db.QueryRowContext(
			ctx,
			`SELECT id FROM jobs WHERE status = ? ORDER BY created_at LIMIT 1`,
			JobQueued,
		).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("peek queue: %w", err)
		}

		now := time.Now().UTC().Format(timeFormat)
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE jobs SET status = ?, last_heartbeat = ?, updated_at = ?
             WHERE id = ? AND status = ?`,
			JobProcessing, now, now, id, JobQueued,
		)
		if err != nil {
			return nil, fmt.Errorf("claim job: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			// Lost the race; another worker claimed it.
			continue
		}
		return s.GetJob(ctx, id)
	}
}

// UpdateHeartbeat records liveness for a job being processed.
func (s *Store) UpdateHeartbeat(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(timeFormat)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE jobs SET last_heartbeat = ?, updated_at = ? WHERE id = ? AND status = ?`,
		now, now, id, JobProcessing,
	)
	if err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return requireRow(res, id)
}

// ReclaimStale returns processing jobs with a heartbeat older than cutoff to
// the queue. Stage rows are left as-is: completed stages are skipped on
// resume and an interrupted in-progress stage is re-executed.
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id FROM jobs
         WHERE status = ? AND (last_heartbeat IS NULL OR last_heartbeat < ?)`,
		JobProcessing,
		cutoff.UTC().Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("find stale jobs: %w", err)
	}
	defer rows.Close()

	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		stale = append(stale, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(timeFormat)
	for _, id := range stale {
		if _, err := s.db.ExecContext(
			ctx,
			`UPDATE jobs SET status = ?, last_heartbeat = NULL, updated_at = ?
             WHERE id = ? AND status = ?`,
			JobQueued, now, id, JobProcessing,
		); err != nil {
			return nil, fmt.Errorf("reclaim job %s: %w", id, err)
		}
	}
	return stale, nil
}
