// Package workflow drives jobs through the fixed processing pipeline. The
// orchestrator claims queued jobs, executes their remaining stages in order
// with checkpointing after each one, and handles retries, failure isolation,
// and resume after a crash.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/logging"
	"reelforge/internal/notifications"
	"reelforge/internal/queue"
	"reelforge/internal/services/retry"
	"reelforge/internal/stage"
)

// Orchestrator owns the worker pool that processes queued jobs.
type Orchestrator struct {
	cfg      *config.Config
	store    *queue.Store
	notifier notifications.Service
	logger   *slog.Logger
	handlers map[queue.StageName]stage.Handler
	retry    retry.Policy

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// New builds an orchestrator. Every executable stage must have a handler.
func New(cfg *config.Config, store *queue.Store, notifier notifications.Service, logger *slog.Logger, handlers ...stage.Handler) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("workflow: config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("workflow: store is required")
	}
	if notifier == nil {
		notifier = notifications.NewService(config.Notifications{})
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	byName := make(map[queue.StageName]stage.Handler, len(handlers))
	for _, handler := range handlers {
		if handler == nil {
			continue
		}
		if _, dup := byName[handler.Name()]; dup {
			return nil, fmt.Errorf("workflow: duplicate handler for stage %s", handler.Name())
		}
		byName[handler.Name()] = handler
	}
	for _, name := range queue.ExecutableStages() {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("workflow: no handler registered for stage %s", name)
		}
	}

	return &Orchestrator{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "workflow"),
		handlers: byName,
		retry: retry.New(
			cfg.Retry.Attempts,
			time.Duration(cfg.Retry.BaseDelayMS)*time.Millisecond,
		),
	}, nil
}

// Start launches the worker pool and the stale-claim monitor. It returns
// immediately; use Stop to shut down.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		return fmt.Errorf("workflow: already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.started = true

	workers := o.cfg.Workflow.Workers
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		o.wg.Add(1)
		go func(id int) {
			defer o.wg.Done()
			o.workerLoop(runCtx, id)
		}(i)
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.reclaimLoop(runCtx)
	}()

	o.logger.InfoContext(ctx, "orchestrator started", logging.Int("workers", workers))
	return nil
}

// Stop cancels all workers and waits for in-flight stage executions to wind
// down. Interrupted stages are recovered on the next start via the stale
// claim monitor.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	cancel := o.cancel
	o.cancel = nil
	started := o.started
	o.started = false
	o.mu.Unlock()

	if !started {
		return
	}
	if cancel != nil {
		cancel()
	}
	o.wg.Wait()
	o.logger.Info("orchestrator stopped")
}

func (o *Orchestrator) workerLoop(ctx context.Context, workerID int) {
	logger := o.logger.With(logging.Int("worker", workerID))
	poll := time.Duration(o.cfg.Workflow.QueuePollInterval) * time.Second
	if poll <= 0 {
		poll = 5 * time.Second
	}
	errorRetry := time.Duration(o.cfg.Workflow.ErrorRetryInterval) * time.Second
	if errorRetry <= 0 {
		errorRetry = poll
	}

	for {
		if ctx.Err() != nil {
			return
		}
		job, err := o.store.DequeueNext(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			logger.ErrorContext(ctx, "dequeue failed", logging.Error(err))
			if !sleepCtx(ctx, errorRetry) {
				return
			}
		case job == nil:
			if !sleepCtx(ctx, poll) {
				return
			}
		default:
			o.processJob(ctx, logger, job)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
