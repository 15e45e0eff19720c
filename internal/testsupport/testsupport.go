// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"reelforge/internal/config"
	"reelforge/internal/queue"
)

// NewConfig returns a validated configuration rooted in a per-test temp
// directory, with service endpoints pointed at placeholders.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.WorkspaceDir = filepath.Join(base, "workspace")
	cfg.LogDir = filepath.Join(base, "logs")
	cfg.Planner.APIKey = "test-key"
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("normalize config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// MustOpenStore opens a job store in a temp directory and registers cleanup.
func MustOpenStore(t *testing.T, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

// SeedJob creates a job with sensible defaults for tests.
func SeedJob(t *testing.T, store *queue.Store, id string) *queue.Job {
	t.Helper()

	job, err := store.CreateJob(context.Background(), queue.NewJobParams{
		ID:        id,
		UserID:    "user-1",
		InputPath: "/videos/" + id + ".mp4",
		Media: queue.MediaInfo{
			DurationSeconds: 420,
			Width:           1920,
			Height:          1080,
			Format:          "mp4",
		},
	})
	if err != nil {
		t.Fatalf("create job %s: %v", id, err)
	}
	return job
}
