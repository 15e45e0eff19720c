package planner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"reelforge/internal/logging"
	"reelforge/internal/plan"
	"reelforge/internal/queue"
	"reelforge/internal/services"
	"reelforge/internal/services/highlights"
	"reelforge/internal/services/transcriber"
	"reelforge/internal/stage"
)

// Handler runs the generating-plan stage: prompt the model, validate what it
// returns, normalize overlapping effect windows, and write the plan artifact.
type Handler struct {
	client    *Client
	workspace string
	logger    *slog.Logger
}

// NewHandler builds the generating-plan stage handler.
func NewHandler(client *Client, workspaceDir string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		client:    client,
		workspace: workspaceDir,
		logger:    logging.NewComponentLogger(logger, "planner"),
	}
}

// Name implements stage.Handler.
func (h *Handler) Name() queue.StageName { return queue.StageGeneratingPlan }

// Execute implements stage.Handler.
func (h *Handler) Execute(ctx context.Context, job *queue.Job, input string) (string, error) {
	detection, err := highlights.Load(input)
	if err != nil {
		return "", err
	}
	transcriptPath := ""
	if rec, ok := job.StageByName(queue.StageTranscribing); ok {
		transcriptPath = rec.OutputPath
	}
	if transcriptPath == "" {
		return "", services.Wrap(services.ErrFatal, "generating-plan", "inputs", "no transcript artifact recorded for job", nil)
	}
	transcript, err := transcriber.Load(transcriptPath)
	if err != nil {
		return "", err
	}

	generated, err := h.client.GeneratePlan(ctx, PromptInput{
		DurationSeconds: job.Media.DurationSeconds,
		Transcript:      transcript,
		Detection:       detection,
	})
	if err != nil {
		return "", err
	}

	warnings, err := plan.Validate(generated, job.Media.DurationSeconds)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "generating-plan", "validate", "", err)
	}
	for _, warning := range warnings {
		h.logger.WarnContext(ctx, "plan adjusted",
			logging.String(logging.FieldJobID, job.ID),
			logging.String("detail", warning),
		)
	}
	generated.ResolveConflicts()

	dir := filepath.Join(h.workspace, job.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("planner: create job workspace: %w", err)
	}
	output := filepath.Join(dir, "plan.json")
	if err := plan.Save(generated, output); err != nil {
		return "", err
	}

	h.logger.InfoContext(ctx, "plan generated",
		logging.String(logging.FieldJobID, job.ID),
		logging.Int("zooms", len(generated.ZoomEffects)),
		logging.Int("text_highlights", len(generated.TextHighlights)),
		logging.Int("broll", len(generated.BRoll)),
		logging.Int("warnings", len(warnings)),
	)
	return output, nil
}

// HealthCheck implements stage.Handler.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if err := h.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(h.Name(), err.Error())
	}
	return stage.Healthy(h.Name(), "planner model reachable")
}
