package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"reelforge/internal/logging"
	"reelforge/internal/plan"
	"reelforge/internal/queue"
	"reelforge/internal/services/stockfootage"
	"reelforge/internal/stage"
)

// Handler runs the rendering stage. Before handing the plan to the render
// farm it resolves b-roll search queries to concrete clips; b-roll is
// decorative, so lookup failures degrade the plan instead of failing the job.
type Handler struct {
	client    *Client
	footage   *stockfootage.Client
	workspace string
	logger    *slog.Logger
}

// NewHandler builds the rendering stage handler. footage may be nil when
// stock footage is disabled.
func NewHandler(client *Client, footage *stockfootage.Client, workspaceDir string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		client:    client,
		footage:   footage,
		workspace: workspaceDir,
		logger:    logging.NewComponentLogger(logger, "renderer"),
	}
}

// Name implements stage.Handler.
func (h *Handler) Name() queue.StageName { return queue.StageRendering }

// Execute implements stage.Handler.
func (h *Handler) Execute(ctx context.Context, job *queue.Job, input string) (string, error) {
	editingPlan, err := plan.Load(input)
	if err != nil {
		return "", err
	}
	h.attachBRoll(ctx, job, editingPlan)

	video := job.InputPath
	if rec, ok := job.StageByName(queue.StageAutoEditing); ok && rec.OutputPath != "" {
		video = rec.OutputPath
	}

	dir := filepath.Join(h.workspace, job.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("renderer: create job workspace: %w", err)
	}
	output := filepath.Join(dir, "final.mp4")

	result, err := h.client.Render(ctx, Request{
		InputPath:  video,
		OutputPath: output,
		Plan:       editingPlan,
	})
	if err != nil {
		return "", err
	}
	h.logger.InfoContext(ctx, "render complete",
		logging.String(logging.FieldJobID, job.ID),
		logging.Float64("duration_seconds", result.DurationSeconds),
		logging.Int64("file_size_bytes", result.FileSizeBytes),
	)
	return result.OutputPath, nil
}

// attachBRoll fills in asset URLs for plan placements that only carry a
// search query. Placements that cannot be resolved are removed.
func (h *Handler) attachBRoll(ctx context.Context, job *queue.Job, p *plan.EditingPlan) {
	if len(p.BRoll) == 0 {
		return
	}
	if h.footage == nil {
		h.logger.WarnContext(ctx, "stock footage disabled, rendering without broll",
			logging.String(logging.FieldJobID, job.ID),
			logging.Int("placements_dropped", len(p.BRoll)),
		)
		p.BRoll = nil
		return
	}

	kept := p.BRoll[:0]
	for _, placement := range p.BRoll {
		if placement.AssetURL != "" {
			kept = append(kept, placement)
			continue
		}
		clips, err := h.footage.Search(ctx, placement.SearchQuery)
		if err != nil || len(clips) == 0 {
			h.logger.WarnContext(ctx, "broll lookup failed, dropping placement",
				logging.String(logging.FieldJobID, job.ID),
				logging.String("query", placement.SearchQuery),
				logging.Error(err),
			)
			continue
		}
		placement.AssetURL = clips[0].URL
		kept = append(kept, placement)
	}
	p.BRoll = kept
}

// HealthCheck implements stage.Handler.
func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if err := h.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(h.Name(), err.Error())
	}
	return stage.Healthy(h.Name(), "renderer reachable")
}
