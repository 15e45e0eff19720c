package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"reelforge/internal/queue"
	"reelforge/internal/workflow"
)

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("Daemon", statusOK, "running", false)
	if !strings.Contains(line, "Daemon:") || !strings.Contains(line, "[OK] running") {
		t.Fatalf("line = %q", line)
	}
	if strings.Contains(line, ansiGreen) {
		t.Fatalf("uncolored line contains ANSI codes: %q", line)
	}

	colored := renderStatusLine("Daemon", statusError, "down", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("colored line = %q", colored)
	}
}

func TestShouldColorizeNonFileWriter(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffer writer should not colorize")
	}
}

func TestRenderJobDetailShowsStagesAndError(t *testing.T) {
	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	view := workflow.JobView{
		ID:           "job-1",
		UserID:       "user-1",
		Status:       queue.JobFailed,
		CurrentStage: queue.StageTranscribing,
		Progress:     25,
		InputPath:    "/videos/demo.mp4",
		ErrorStage:   string(queue.StageTranscribing),
		ErrorMessage: "transcriber unreachable",
		Stages: []workflow.StageView{
			{Name: queue.StageUploaded, Status: queue.StageCompleted},
			{Name: queue.StageAutoEditing, Status: queue.StageCompleted, StartedAt: &started},
			{Name: queue.StageTranscribing, Status: queue.StageFailed, Error: "transcriber unreachable"},
		},
	}

	var out bytes.Buffer
	renderJobDetail(&out, view)
	text := out.String()

	for _, want := range []string{
		"job-1",
		"transcribing (25%)",
		"[transcribing] transcriber unreachable",
		"auto-editing",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{3 * time.Hour, "3h"},
		{49 * time.Hour, "2d"},
	}
	for _, tc := range tests {
		got := formatAge(time.Now().Add(-tc.age))
		if got != tc.want {
			t.Fatalf("formatAge(%v) = %q, want %q", tc.age, got, tc.want)
		}
	}
	if got := formatAge(time.Time{}); got != "-" {
		t.Fatalf("formatAge(zero) = %q", got)
	}
}
