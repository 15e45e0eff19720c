package main

import (
	"testing"

	"reelforge/internal/config"
	"reelforge/internal/queue"
)

func TestBuildHandlersCoversEveryExecutableStage(t *testing.T) {
	cfg := config.Default()

	handlers := buildHandlers(&cfg, nil)

	seen := make(map[queue.StageName]bool, len(handlers))
	for _, h := range handlers {
		if seen[h.Name()] {
			t.Fatalf("duplicate handler for stage %s", h.Name())
		}
		seen[h.Name()] = true
	}
	for _, name := range queue.ExecutableStages() {
		if !seen[name] {
			t.Fatalf("no handler for stage %s", name)
		}
	}
	if len(handlers) != len(queue.ExecutableStages()) {
		t.Fatalf("handlers = %d, want %d", len(handlers), len(queue.ExecutableStages()))
	}
}
