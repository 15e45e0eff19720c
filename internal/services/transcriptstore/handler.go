package transcriptstore

import (
	"context"
	"log/slog"

	"reelforge/internal/logging"
	"reelforge/internal/queue"
	"reelforge/internal/services/transcriber"
	"reelforge/internal/stage"
)

// Handler runs the storing-transcript stage. The transcript file stays the
// current artifact so downstream stages keep reading it; the index reference
// is logged for operators.
type Handler struct {
	client *Client
	logger *slog.Logger
}

// NewHandler builds the storing-transcript stage handler.
func NewHandler(client *Client, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		client: client,
		logger: logging.NewComponentLogger(logger, "transcriptstore"),
	}
}

// Name implements stage.Handler.
func (h *Handler) Name() queue.StageName { return queue.StageStoringTranscript }

// Execute implements stage.Handler.
func (h *Handler) Execute(ctx context.Context, job *queue.Job, input string) (string, error) {
	transcript, err := transcriber.Load(input)
	if err != nil {
		return "", err
	}
	ref, err := h.client.Store(ctx, job.ID, job.UserID, transcript)
	if err != nil {
		return "", err
	}
	h.logger.InfoContext(ctx, "transcript indexed",
		logging.String(logging.FieldJobID, job.ID),
		logging.String("transcript_ref", ref),
	)
	return input, nil
}

// HealthCheck implements stage.Handler.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if err := h.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(h.Name(), err.Error())
	}
	return stage.Healthy(h.Name(), "transcript store reachable")
}
