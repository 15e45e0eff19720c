package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"reelforge/internal/services"
)

func TestPrettyHandlerPromotesComponent(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl))

	logger.Info("stage started", String(FieldComponent, "orchestrator"), String(FieldStage, "rendering"))

	line := buf.String()
	if !strings.Contains(line, "orchestrator: stage started") {
		t.Fatalf("component not promoted into prefix: %q", line)
	}
	if !strings.Contains(line, "stage=rendering") {
		t.Fatalf("missing stage attr: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component should not repeat as attr: %q", line)
	}
}

func TestPrettyHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, lvl))

	logger.Warn("plan adjusted", String("reason", "scale out of range"))

	if !strings.Contains(buf.String(), `reason="scale out of range"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestWithContextAddsJobFields(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	base := slog.New(newPrettyHandler(&buf, lvl))

	ctx := services.WithJobID(context.Background(), "job-42")
	ctx = services.WithStage(ctx, "transcribing")

	WithContext(ctx, base).Info("hello")

	line := buf.String()
	if !strings.Contains(line, "job_id=job-42") || !strings.Contains(line, "stage=transcribing") {
		t.Fatalf("context fields missing: %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
