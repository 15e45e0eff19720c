package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable by the daemon.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateServices(); err != nil {
		return err
	}
	if err := c.validatePublisher(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.WorkspaceDir) == "" {
		return errors.New("paths.workspace_dir must be set")
	}
	if strings.TrimSpace(c.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.Workers <= 0 {
		return errors.New("workflow.workers must be positive")
	}
	if c.Workflow.QueuePollInterval <= 0 {
		return errors.New("workflow.queue_poll_interval must be positive")
	}
	if c.Workflow.HeartbeatInterval < 0 || c.Workflow.HeartbeatTimeout < 0 {
		return errors.New("workflow heartbeat settings must not be negative")
	}
	if c.Workflow.HeartbeatTimeout > 0 && c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must exceed workflow.heartbeat_interval")
	}
	if c.Workflow.StageTimeout < 0 {
		return errors.New("workflow.stage_timeout must not be negative")
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.Attempts <= 0 {
		return errors.New("retry.attempts must be positive")
	}
	if c.Retry.BaseDelayMS <= 0 {
		return errors.New("retry.base_delay_ms must be positive")
	}
	return nil
}

func (c *Config) validateServices() error {
	required := []struct {
		name string
		url  string
	}{
		{"silence_cut.base_url", c.SilenceCut.BaseURL},
		{"transcriber.base_url", c.Transcriber.BaseURL},
		{"transcript_store.base_url", c.TranscriptStore.BaseURL},
		{"highlights.base_url", c.Highlights.BaseURL},
		{"renderer.base_url", c.Renderer.BaseURL},
	}
	for _, svc := range required {
		if strings.TrimSpace(svc.url) == "" {
			return fmt.Errorf("%s must be set", svc.name)
		}
	}
	if strings.TrimSpace(c.Planner.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/reelforge/config.toml"
		}
		return fmt.Errorf("planner.api_key is required; edit %s (create with 'reelforge config init')", defaultPath)
	}
	if c.StockFootage.Enabled && strings.TrimSpace(c.StockFootage.APIKey) == "" {
		return errors.New("stock_footage.api_key must be set when stock_footage.enabled is true")
	}
	if c.StockFootage.MaxClips < 0 {
		return errors.New("stock_footage.max_clips must not be negative")
	}
	return nil
}

func (c *Config) validatePublisher() error {
	if strings.TrimSpace(c.Publisher.BaseURL) == "" {
		return errors.New("publisher.base_url must be set")
	}
	switch strings.ToLower(strings.TrimSpace(c.Publisher.Privacy)) {
	case "public", "unlisted", "private":
		return nil
	default:
		return fmt.Errorf("publisher.privacy must be public, unlisted, or private (got %q)", c.Publisher.Privacy)
	}
}
