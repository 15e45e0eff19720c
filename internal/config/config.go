package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	WorkspaceDir string `toml:"workspace_dir"`
	LogDir       string `toml:"log_dir"`
	APIBind      string `toml:"api_bind"`
}

// Workflow contains daemon timing and concurrency settings.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	HeartbeatInterval  int `toml:"heartbeat_interval"`
	HeartbeatTimeout   int `toml:"heartbeat_timeout"`
	Workers            int `toml:"workers"`
	// StageTimeout bounds a single stage execution in seconds. Zero disables
	// the deadline and leaves each collaborator's own timeout in charge.
	StageTimeout int `toml:"stage_timeout"`
}

// Retry contains the bounded-retry schedule applied to transient stage failures.
type Retry struct {
	Attempts    int `toml:"attempts"`
	BaseDelayMS int `toml:"base_delay_ms"`
}

// SilenceCut contains configuration for the auto-editing service.
type SilenceCut struct {
	BaseURL           string  `toml:"base_url"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	MinSilenceSeconds float64 `toml:"min_silence_seconds"`
}

// Transcriber contains configuration for the transcription service.
type Transcriber struct {
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// TranscriptStore contains configuration for transcript persistence.
type TranscriptStore struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Highlights contains configuration for the highlight detection service.
type Highlights struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Planner contains LLM connection settings for editing-plan generation.
type Planner struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StockFootage contains configuration for B-roll search and download.
type StockFootage struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	MaxClips       int    `toml:"max_clips"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Renderer contains configuration for the render service.
type Renderer struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Publisher contains configuration for video publishing.
type Publisher struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Privacy        string `toml:"privacy"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	UserTopic      string `toml:"user_topic"`
	OperatorTopic  string `toml:"operator_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Completion     bool   `toml:"completion"`
	Errors         bool   `toml:"errors"`
	Status         bool   `toml:"status"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config is the root configuration for the reelforge daemon and CLI.
type Config struct {
	Paths           `toml:"paths"`
	Workflow        Workflow        `toml:"workflow"`
	Retry           Retry           `toml:"retry"`
	SilenceCut      SilenceCut      `toml:"silence_cut"`
	Transcriber     Transcriber     `toml:"transcriber"`
	TranscriptStore TranscriptStore `toml:"transcript_store"`
	Highlights      Highlights      `toml:"highlights"`
	Planner         Planner         `toml:"planner"`
	StockFootage    StockFootage    `toml:"stock_footage"`
	Renderer        Renderer        `toml:"renderer"`
	Publisher       Publisher       `toml:"publisher"`
	Notifications   Notifications   `toml:"notifications"`
	Logging         Logging         `toml:"logging"`
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() string { return c.Logging.Level }

// LogFormat returns the configured log format.
func (c *Config) LogFormat() string { return c.Logging.Format }

// DefaultConfigPath returns the canonical location of the config file.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "reelforge", "config.toml"), nil
}

// Load reads configuration from path (or the default location when empty),
// layering file values over defaults. The boolean result reports whether a
// config file was found.
func Load(path string) (*Config, string, bool, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, "", false, err
		}
		resolved = defaultPath
	}
	expanded, err := expandPath(resolved)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	data, err := os.ReadFile(expanded)
	found := err == nil
	switch {
	case found:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, expanded, true, fmt.Errorf("parse config %s: %w", expanded, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only; callers decide whether a missing file is fatal.
	default:
		return nil, expanded, false, fmt.Errorf("read config %s: %w", expanded, err)
	}

	if err := cfg.Normalize(); err != nil {
		return nil, expanded, found, err
	}
	return &cfg, expanded, found, nil
}

// WriteSample writes the embedded sample config to path, failing if the file
// already exists.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists: %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the workspace and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.WorkspaceDir, c.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// Normalize expands home-relative paths and applies fallback values.
func (c *Config) Normalize() error {
	var err error
	if c.WorkspaceDir, err = expandPath(c.WorkspaceDir); err != nil {
		return err
	}
	if c.LogDir, err = expandPath(c.LogDir); err != nil {
		return err
	}
	if c.Workflow.Workers <= 0 {
		c.Workflow.Workers = defaultWorkers
	}
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Retry.Attempts <= 0 {
		c.Retry.Attempts = defaultRetryAttempts
	}
	if c.Retry.BaseDelayMS <= 0 {
		c.Retry.BaseDelayMS = defaultRetryBaseDelayMS
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %q: %w", path, err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return trimmed, nil
}
