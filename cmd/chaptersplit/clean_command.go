package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"chaptersplit/internal/services"
	"chaptersplit/internal/staging"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	var dryRun bool
	var keepVideos bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale downloads and subtitles from the work directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan < 0 {
				return services.Wrap(services.ErrValidation, "cli", "clean", "--older-than must not be negative", nil)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}

			opts := staging.CleanOptions{MaxAge: olderThan, DryRun: dryRun}
			if keepVideos {
				opts.Keep = func(e staging.Entry) bool { return e.Kind == staging.KindVideo }
			}
			result := staging.CleanStale(cmd.Context(), cfg.Paths.WorkDir, opts, logger)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if len(result.Removed) > 0 {
				fmt.Fprintln(out, workEntriesTable(result.Removed))
			}
			verb := "removed"
			if dryRun {
				verb = "would remove"
			}
			kind := statusOK
			if len(result.Errors) > 0 {
				kind = statusError
			}
			fmt.Fprintln(out, renderStatusLine("Work dir", kind,
				fmt.Sprintf("%s %d entries (%s), kept %d", verb, len(result.Removed), humanize.Bytes(uint64(result.Reclaimed())), result.Kept),
				colorize))
			for _, failure := range result.Errors {
				fmt.Fprintln(out, renderStatusLine("Error", statusError, fmt.Sprintf("%s: %v", failure.Path, failure.Error), colorize))
			}
			if len(result.Errors) > 0 {
				return services.Wrap(services.ErrTransient, "cli", "clean", fmt.Sprintf("%d entries could not be removed", len(result.Errors)), nil)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "Remove entries last modified before this age")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be removed without deleting")
	cmd.Flags().BoolVar(&keepVideos, "keep-videos", false, "Keep downloaded videos and only remove subtitles and partial files")
	return cmd
}

func workEntriesTable(entries []staging.Entry) string {
	rows := make([][]string, 0, len(entries))
	var total int64
	for _, entry := range entries {
		total += entry.Size
		rows = append(rows, []string{
			entry.Name,
			string(entry.Kind),
			humanize.Bytes(uint64(entry.Size)),
			humanize.Time(entry.ModTime),
		})
	}
	return renderTable(tableSpec{
		Headers: []string{"Entry", "Kind", "Size", "Modified"},
		Rows:    rows,
		Aligns:  []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
		Footer:  []string{fmt.Sprintf("%d entries", len(entries)), "", humanize.Bytes(uint64(total)), ""},
	})
}
