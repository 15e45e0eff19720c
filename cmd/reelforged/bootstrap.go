package main

import (
	"log/slog"

	"reelforge/internal/config"
	"reelforge/internal/services/highlights"
	"reelforge/internal/services/planner"
	"reelforge/internal/services/publisher"
	"reelforge/internal/services/renderer"
	"reelforge/internal/services/silencecut"
	"reelforge/internal/services/stockfootage"
	"reelforge/internal/services/transcriber"
	"reelforge/internal/services/transcriptstore"
	"reelforge/internal/stage"
)

// buildHandlers constructs one handler per pipeline stage, wiring each to its
// backing service client.
func buildHandlers(cfg *config.Config, logger *slog.Logger) []stage.Handler {
	var footage *stockfootage.Client
	if cfg.StockFootage.Enabled {
		footage = stockfootage.NewClient(cfg.StockFootage)
	}

	return []stage.Handler{
		silencecut.NewHandler(silencecut.NewClient(cfg.SilenceCut), cfg.WorkspaceDir, logger),
		transcriber.NewHandler(transcriber.NewClient(cfg.Transcriber), cfg.WorkspaceDir, logger),
		transcriptstore.NewHandler(transcriptstore.NewClient(cfg.TranscriptStore), logger),
		highlights.NewHandler(highlights.NewClient(cfg.Highlights), cfg.WorkspaceDir, logger),
		planner.NewHandler(planner.NewClient(cfg.Planner), cfg.WorkspaceDir, logger),
		renderer.NewHandler(renderer.NewClient(cfg.Renderer), footage, cfg.WorkspaceDir, logger),
		publisher.NewHandler(publisher.NewClient(cfg.Publisher), logger),
	}
}
