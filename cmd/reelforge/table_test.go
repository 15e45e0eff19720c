package main

import (
	"strings"
	"testing"
)

func TestRenderTablePadsRaggedRows(t *testing.T) {
	out := renderTable(
		[]string{"ID", "Status", "Progress"},
		[][]string{
			{"job-a", "processing", "37%"},
			{"job-b"},
		},
		[]columnAlignment{alignLeft, alignLeft, alignRight},
	)

	lines := strings.Split(out, "\n")
	if len(lines) < 4 {
		t.Fatalf("table output too short:\n%s", out)
	}
	width := len(lines[0])
	for _, line := range lines[1:] {
		if len(line) != width {
			t.Fatalf("ragged table line %q in:\n%s", line, out)
		}
	}
	if !strings.Contains(out, "job-b") {
		t.Fatalf("short row missing from output:\n%s", out)
	}
}

func TestRenderTableEmptyHeaders(t *testing.T) {
	if out := renderTable(nil, [][]string{{"x"}}, nil); out != "" {
		t.Fatalf("output = %q, want empty", out)
	}
}
