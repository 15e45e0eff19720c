// Package stage defines the contract between the workflow orchestrator and
// the services that execute individual pipeline stages.
package stage

import (
	"context"

	"reelforge/internal/queue"
)

// Handler executes one pipeline stage for a job. Execute receives the
// artifact produced by the previous stage (or the job's input path) and
// returns the artifact it produced, which is recorded on the stage's
// checkpoint row. Handlers must be safe to re-run: resume after a crash
// re-executes the interrupted stage from its input artifact.
type Handler interface {
	Name() queue.StageName
	Execute(ctx context.Context, job *queue.Job, input string) (output string, err error)
	HealthCheck(ctx context.Context) Health
}

// Health reports the result of a stage handler's dependency check.
type Health struct {
	Name   queue.StageName `json:"name"`
	Ready  bool            `json:"ready"`
	Detail string          `json:"detail,omitempty"`
}

// Healthy builds a passing health result.
func Healthy(name queue.StageName, detail string) Health {
	return Health{Name: name, Ready: true, Detail: detail}
}

// Unhealthy builds a failing health result.
func Unhealthy(name queue.StageName, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
