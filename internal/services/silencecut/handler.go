package silencecut

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"reelforge/internal/logging"
	"reelforge/internal/queue"
	"reelforge/internal/stage"
)

// Handler runs the auto-editing stage: it asks the silence-cut service for a
// tightened copy of the source video.
type Handler struct {
	client    *Client
	workspace string
	logger    *slog.Logger
}

// NewHandler builds the auto-editing stage handler.
func NewHandler(client *Client, workspaceDir string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		client:    client,
		workspace: workspaceDir,
		logger:    logging.NewComponentLogger(logger, "silencecut"),
	}
}

// Name implements stage.Handler.
func (h *Handler) Name() queue.StageName { return queue.StageAutoEditing }

// Execute implements stage.Handler.
func (h *Handler) Execute(ctx context.Context, job *queue.Job, input string) (string, error) {
	dir := filepath.Join(h.workspace, job.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("silencecut: create job workspace: %w", err)
	}
	output := filepath.Join(dir, "cut.mp4")

	result, err := h.client.Cut(ctx, input, output)
	if err != nil {
		return "", err
	}
	h.logger.InfoContext(ctx, "silence removed",
		logging.String(logging.FieldJobID, job.ID),
		logging.Float64("removed_seconds", result.RemovedSeconds),
		logging.Int("segments_removed", result.SegmentsRemoved),
	)
	return result.OutputPath, nil
}

// HealthCheck implements stage.Handler.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if err := h.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(h.Name(), err.Error())
	}
	return stage.Healthy(h.Name(), "silence-cut reachable")
}
