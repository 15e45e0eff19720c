package main

import (
	"context"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"reelforge/internal/api"
	"reelforge/internal/config"
	"reelforge/internal/queue"
	"reelforge/internal/workflow"
)

// jobAPI is the job surface shared by the daemon HTTP client and the direct
// store path.
type jobAPI interface {
	Submit(ctx context.Context, req api.SubmitRequest) (workflow.JobView, error)
	Get(ctx context.Context, id string) (workflow.JobView, error)
	List(ctx context.Context, statusNames ...string) ([]workflow.JobView, error)
	Retry(ctx context.Context, id string) error
}

type commandContext struct {
	addressFlag *string
	configFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(addressFlag, configFlag *string) *commandContext {
	return &commandContext{
		addressFlag: addressFlag,
		configFlag:  configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) apiAddress() string {
	if c.addressFlag != nil && strings.TrimSpace(*c.addressFlag) != "" {
		return strings.TrimSpace(*c.addressFlag)
	}
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		return cfg.APIBind
	}
	return ""
}

// withJobs runs fn against the daemon API when one is reachable, falling back
// to direct store access so inspection works while the daemon is down.
func (c *commandContext) withJobs(ctx context.Context, fn func(jobs jobAPI) error) error {
	client := api.NewClient(c.apiAddress())
	if client.Available(ctx) {
		return fn(client)
	}

	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(api.NewJobService(store))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
