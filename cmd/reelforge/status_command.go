package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"reelforge/internal/api"
	"reelforge/internal/queue"
	"reelforge/internal/workflow"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status [jobID]",
		Short: "Show daemon health or one job's progress",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return ctx.withJobs(cmd.Context(), func(jobs jobAPI) error {
					view, err := jobs.Get(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					renderJobDetail(cmd.OutOrStdout(), view)
					return nil
				})
			}
			return renderDaemonStatus(cmd, ctx)
		},
	}
}

func renderDaemonStatus(cmd *cobra.Command, ctx *commandContext) error {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	client := api.NewClient(ctx.apiAddress())
	status, err := client.Status(cmd.Context())
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, "not running", colorize))
		return renderOfflineHealth(cmd, ctx, colorize)
	}

	fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, "running", colorize))
	fmt.Fprintln(out, renderStatusLine("Queue DB", statusInfo, status.QueueDBPath, colorize))
	renderHealthReport(out, status.Health, colorize)
	return nil
}

// renderOfflineHealth reads queue counts straight from the store so status
// still works when the daemon is stopped.
func renderOfflineHealth(cmd *cobra.Command, ctx *commandContext, colorize bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Health(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderStatusLine("Queue DB", statusInfo, store.Path(), colorize))
	renderQueueSummary(out, summary, colorize)
	return nil
}

func renderHealthReport(out io.Writer, report workflow.HealthReport, colorize bool) {
	renderQueueSummary(out, report.Queue, colorize)
	for _, h := range report.Stages {
		kind := statusOK
		if !h.Ready {
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine(string(h.Name), kind, h.Detail, colorize))
	}
}

func renderQueueSummary(out io.Writer, summary queue.HealthSummary, colorize bool) {
	detail := fmt.Sprintf("%d total, %d queued, %d processing, %d completed, %d failed",
		summary.Total, summary.Queued, summary.Processing, summary.Completed, summary.Failed)
	kind := statusInfo
	if summary.Failed > 0 {
		kind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Jobs", kind, detail, colorize))
}

func renderJobDetail(out io.Writer, view workflow.JobView) {
	fmt.Fprintf(out, "Job:      %s\n", view.ID)
	fmt.Fprintf(out, "User:     %s\n", view.UserID)
	fmt.Fprintf(out, "Status:   %s\n", view.Status)
	fmt.Fprintf(out, "Stage:    %s (%d%%)\n", view.CurrentStage, view.Progress)
	fmt.Fprintf(out, "Input:    %s\n", view.InputPath)
	if view.ResultRef != "" {
		fmt.Fprintf(out, "Result:   %s\n", view.ResultRef)
	}
	if view.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:    [%s] %s\n", view.ErrorStage, view.ErrorMessage)
	}

	if len(view.Stages) == 0 {
		return
	}
	rows := make([][]string, 0, len(view.Stages))
	for _, sv := range view.Stages {
		rows = append(rows, []string{
			string(sv.Name),
			string(sv.Status),
			formatTimestamp(sv.StartedAt),
			formatTimestamp(sv.EndedAt),
			sv.Error,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Stage", "Status", "Started", "Ended", "Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	))
}
