package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"reelforge/internal/api"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var req api.SubmitRequest

	cmd := &cobra.Command{
		Use:   "submit <video-path>",
		Short: "Submit an uploaded video for processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve video path: %w", err)
			}
			req.InputPath = path

			return ctx.withJobs(cmd.Context(), func(jobs jobAPI) error {
				view, err := jobs.Submit(cmd.Context(), req)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Submitted job %s\n", view.ID)
				fmt.Fprintf(out, "Status: %s (stage %s)\n", view.Status, view.CurrentStage)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.ID, "id", "", "Job ID (generated when omitted)")
	cmd.Flags().StringVarP(&req.UserID, "user", "u", "", "Owning user ID")
	cmd.Flags().Float64Var(&req.DurationSeconds, "duration", 0, "Video duration in seconds")
	cmd.Flags().IntVar(&req.Width, "width", 0, "Video width in pixels")
	cmd.Flags().IntVar(&req.Height, "height", 0, "Video height in pixels")
	cmd.Flags().StringVar(&req.Format, "format", "", "Container format (e.g. mp4)")
	cmd.Flags().StringVar(&req.Checksum, "checksum", "", "Source file checksum")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("duration")

	return cmd
}
