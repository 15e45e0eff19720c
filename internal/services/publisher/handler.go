package publisher

import (
	"context"
	"log/slog"

	"reelforge/internal/logging"
	"reelforge/internal/queue"
	"reelforge/internal/stage"
)

// Handler runs the uploading stage. The published URL becomes the stage
// artifact, which the orchestrator records as the job's result reference.
type Handler struct {
	client *Client
	logger *slog.Logger
}

// NewHandler builds the uploading stage handler.
func NewHandler(client *Client, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		client: client,
		logger: logging.NewComponentLogger(logger, "publisher"),
	}
}

// Name implements stage.Handler.
func (h *Handler) Name() queue.StageName { return queue.StageUploading }

// Execute implements stage.Handler.
func (h *Handler) Execute(ctx context.Context, job *queue.Job, input string) (string, error) {
	url, err := h.client.Publish(ctx, Upload{
		FilePath: input,
		Title:    h.client.TitleFor(job.InputPath),
		UserID:   job.UserID,
	})
	if err != nil {
		return "", err
	}
	h.logger.InfoContext(ctx, "video published",
		logging.String(logging.FieldJobID, job.ID),
		logging.String("url", url),
	)
	return url, nil
}

// HealthCheck implements stage.Handler.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if err := h.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(h.Name(), err.Error())
	}
	return stage.Healthy(h.Name(), "publisher reachable")
}
