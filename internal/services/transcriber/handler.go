package transcriber

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

// Handler runs the transcribing stage and writes the transcript artifact
// into the job workspace.
type Handler struct {
	client    *Client
	workspace string
	logger    *slog.Logger
}

// NewHandler builds the transcribing stage handler.
func NewHandler(client *Client, workspaceDir string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		client:    client,
		workspace: workspaceDir,
		logger:    logging.NewComponentLogger(logger, "transcriber"),
	}
}

// Name implements stage.Handler.
func (h *Handler) Name() queue.StageName { return queue.StageTranscribing }

// Execute implements stage.Handler.
func (h *Handler) Execute(ctx context.Context, job *queue.Job, input string) (string, error) {
	transcript, err := h.client.Transcribe(ctx, input)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(h.workspace, job.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("transcriber: create job workspace: %w", err)
	}
	output := filepath.Join(dir, "transcript.json")
	if err := transcript.Save(output); err != nil {
		return "", err
	}

	h.logger.InfoContext(ctx, "transcription complete",
		logging.String(logging.FieldJobID, job.ID),
		logging.String("language", transcript.Language),
		logging.Int("segments", len(transcript.Segments)),
	)
	return output, nil
}

// HealthCheck implements stage.Handler.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if err := h.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(h.Name(), err.Error())
	}
	return stage.Healthy(h.Name(), "transcriber reachable")
}
