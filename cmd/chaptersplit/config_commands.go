package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"chaptersplit/internal/config"
	"chaptersplit/internal/services"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))
	return configCmd
}

// resolveInitTarget returns where `config init` writes, refusing to replace an
// existing file unless overwrite is set.
func resolveInitTarget(pathFlag string, overwrite bool) (string, error) {
	target := strings.TrimSpace(pathFlag)
	var err error
	if target == "" {
		target, err = config.DefaultConfigPath()
	} else {
		target, err = config.ExpandPath(target)
	}
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "cli", "config init", "resolve path", err)
	}
	if overwrite {
		return target, nil
	}
	_, statErr := os.Stat(target)
	switch {
	case statErr == nil:
		return "", services.Wrap(services.ErrValidation, "cli", "config init",
			fmt.Sprintf("%s already exists (use --overwrite to replace it)", target), nil)
	case !errors.Is(statErr, os.ErrNotExist):
		return "", fmt.Errorf("check config path: %w", statErr)
	}
	return target, nil
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented sample configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := resolveInitTarget(targetPath, overwrite)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit out_dir and work_dir, then run `chaptersplit check` to verify ffmpeg and yt-dlp.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			source := ctx.configPath
			kind := statusInfo
			if !ctx.configExists {
				source += " (not found, using defaults)"
				kind = statusWarn
			}
			fmt.Fprintln(out, renderStatusLine("Config", kind, source, colorize))
			fmt.Fprintln(out, renderStatusLine("Output", statusInfo, cfg.Paths.OutDir, colorize))
			fmt.Fprintln(out, renderStatusLine("Work", statusInfo, cfg.Paths.WorkDir, colorize))
			if cfg.Paths.LogDir != "" {
				fmt.Fprintln(out, renderStatusLine("Logs", statusInfo, cfg.Paths.LogDir, colorize))
			}
			encoder := fmt.Sprintf("libx264 %s crf %d", cfg.Encoding.Preset, cfg.Encoding.CRF)
			if cfg.Hardware.Enabled {
				encoder = cfg.Hardware.Encoder + " (fallback " + encoder + ")"
			}
			fmt.Fprintln(out, renderStatusLine("Encoder", statusInfo, encoder, colorize))
			fmt.Fprintln(out, renderStatusLine("Result", statusOK, "Configuration valid", colorize))
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			data, err := toml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", ctx.configPath)
			_, err = out.Write(data)
			return err
		},
	}
}
