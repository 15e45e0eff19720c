package highlights

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"reelforge/internal/logging"
	"reelforge/internal/queue"
	"reelforge/internal/services/transcriber"
	"reelforge/internal/stage"
)

// Handler runs the detecting-highlights stage.
type Handler struct {
	client    *Client
	workspace string
	logger    *slog.Logger
}

// NewHandler builds the detecting-highlights stage handler.
func NewHandler(client *Client, workspaceDir string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		client:    client,
		workspace: workspaceDir,
		logger:    logging.NewComponentLogger(logger, "highlights"),
	}
}

// Name implements stage.Handler.
func (h *Handler) Name() queue.StageName { return queue.StageDetectingHighlights }

// Execute implements stage.Handler.
func (h *Handler) Execute(ctx context.Context, job *queue.Job, input string) (string, error) {
	transcript, err := transcriber.Load(input)
	if err != nil {
		return "", err
	}
	detection, err := h.client.Detect(ctx, transcript)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(h.workspace, job.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("highlights: create job workspace: %w", err)
	}
	output := filepath.Join(dir, "highlights.json")
	if err := detection.Save(output); err != nil {
		return "", err
	}

	h.logger.InfoContext(ctx, "highlights detected",
		logging.String(logging.FieldJobID, job.ID),
		logging.Int("highlights", len(detection.Highlights)),
	)
	return output, nil
}

// HealthCheck implements stage.Handler.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if err := h.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(h.Name(), err.Error())
	}
	return stage.Healthy(h.Name(), "highlight detection reachable")
}
