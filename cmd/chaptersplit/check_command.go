package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chaptersplit/internal/deps"
	"chaptersplit/internal/services"
	"chaptersplit/internal/workflow"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify external tools, encoders, and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			runner := workflow.New(cfg, logger)
			checks := runner.Health(cmd.Context(), deps.EncoderProbe{FFmpeg: cfg.FFmpegBinary()})

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, line := range healthLines(checks, colorize) {
				fmt.Fprintln(out, line)
			}
			if ctx.configPath != "" {
				fmt.Fprintln(out, renderStatusLine("Config", statusInfo, ctx.configPath, colorize))
			}
			if !workflow.Ready(checks) {
				return services.Wrap(services.ErrExternalTool, "cli", "check", "required dependencies are missing", nil)
			}
			return nil
		},
	}
}
