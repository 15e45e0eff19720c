package workflow

import (
	"context"
	"errors"
	"time"

	"reelforge/internal/logging"
	"reelforge/internal/queue"
)

// heartbeatLoop keeps a processing job's claim fresh until the job finishes
// or the orchestrator shuts down.
func (o *Orchestrator) heartbeatLoop(ctx context.Context, jobID string) {
	interval := time.Duration(o.cfg.Workflow.HeartbeatInterval) * time.Second
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := o.store.UpdateHeartbeat(ctx, jobID)
			if err == nil {
				continue
			}
			if errors.Is(err, queue.ErrNotFound) {
				// Job reached a terminal status; nothing left to keep alive.
				return
			}
			if ctx.Err() != nil {
				return
			}
			o.logger.WarnContext(ctx, "heartbeat failed",
				logging.String(logging.FieldJobID, jobID),
				logging.Error(err),
			)
		}
	}
}

// reclaimLoop periodically returns jobs with stale heartbeats to the queue.
// A reclaimed job keeps its completed stage checkpoints, so whoever picks it
// up next resumes rather than restarts.
func (o *Orchestrator) reclaimLoop(ctx context.Context) {
	interval := time.Duration(o.cfg.Workflow.HeartbeatInterval) * time.Second
	if interval <= 0 {
		interval = 15 * time.Second
	}
	timeout := time.Duration(o.cfg.Workflow.HeartbeatTimeout) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-timeout)
			reclaimed, err := o.store.ReclaimStale(ctx, cutoff)
			if err != nil {
				if ctx.Err() == nil {
					o.logger.ErrorContext(ctx, "reclaim stale jobs", logging.Error(err))
				}
				continue
			}
			for _, id := range reclaimed {
				o.logger.WarnContext(ctx, "reclaimed stale job",
					logging.String(logging.FieldJobID, id))
			}
		}
	}
}
