package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	cmd := newConfigInitCommand()
	if err := cmd.Flags().Set("path", target); err != nil {
		t.Fatalf("set path flag: %v", err)
	}
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("config init: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[planner]") {
		t.Fatalf("sample config missing planner section:\n%s", data)
	}
	if !strings.Contains(out.String(), target) {
		t.Fatalf("output does not mention target path: %q", out.String())
	}
}

func TestConfigInitRefusesExistingFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(target, []byte("# keep\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	cmd := newConfigInitCommand()
	if err := cmd.Flags().Set("path", target); err != nil {
		t.Fatalf("set path flag: %v", err)
	}
	cmd.SetOut(&bytes.Buffer{})

	if err := cmd.RunE(cmd, nil); err == nil {
		t.Fatal("expected error for existing config file")
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(data) != "# keep\n" {
		t.Fatalf("existing config was overwritten: %q", data)
	}
}

func TestConfigValidateFlagsMissingAPIKey(t *testing.T) {
	target := filepath.Join(t.TempDir(), "missing.toml")

	cmd := newConfigValidateCommand()
	if err := cmd.Flags().Set("path", target); err != nil {
		t.Fatalf("set path flag: %v", err)
	}
	var out bytes.Buffer
	cmd.SetOut(&out)

	err := cmd.RunE(cmd, nil)
	if err == nil || !strings.Contains(err.Error(), "planner.api_key") {
		t.Fatalf("err = %v, want planner.api_key complaint", err)
	}
	if !strings.Contains(out.String(), "defaults were used") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestConfigValidateAcceptsCompleteConfig(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	body := `
[paths]
workspace_dir = "` + filepath.Join(t.TempDir(), "work") + `"
log_dir = "` + filepath.Join(t.TempDir(), "logs") + `"

[silence_cut]
base_url = "http://127.0.0.1:9101"

[transcriber]
base_url = "http://127.0.0.1:9102"

[transcript_store]
base_url = "http://127.0.0.1:9103"

[highlights]
base_url = "http://127.0.0.1:9104"

[planner]
api_key = "test-key"

[stock_footage]
enabled = false

[renderer]
base_url = "http://127.0.0.1:9105"

[publisher]
base_url = "http://127.0.0.1:9106"
`
	if err := os.WriteFile(target, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := newConfigValidateCommand()
	if err := cmd.Flags().Set("path", target); err != nil {
		t.Fatalf("set path flag: %v", err)
	}
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out.String(), "Configuration valid") {
		t.Fatalf("output = %q", out.String())
	}
}
