package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"chaptersplit/internal/chapters"
	"chaptersplit/internal/config"
	"chaptersplit/internal/planner"
	"chaptersplit/internal/provider/local"
	"chaptersplit/internal/services"
	"chaptersplit/internal/subtitles"
)

func newSliceSubsCommand(ctx *commandContext) *cobra.Command {
	var sheetPath string
	var outDir string
	var offset float64
	var duration float64

	cmd := &cobra.Command{
		Use:   "slice-subs <subtitle-file>",
		Short: "Slice a subtitle file into one SRT per chapter",
		Long: "Slice a subtitle file (SRT or WebVTT) into one SRT file per chapter of a chapter sheet.\n" +
			"The last chapter ends at --duration, or at the last cue when no duration is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("offset") {
				cfg.Subtitles.OffsetSeconds = offset
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}

			track, err := subtitles.ParseFile(strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			sheet, err := local.LoadSheet(strings.TrimSpace(sheetPath))
			if err != nil {
				return err
			}
			end := duration
			if end <= 0 {
				end = track.EndS()
			}
			list, err := sheet.Build(end)
			if err != nil {
				return err
			}

			target := strings.TrimSpace(outDir)
			if target == "" {
				target = "."
			}
			if target, err = config.ExpandPath(target); err != nil {
				return fmt.Errorf("resolve --out: %w", err)
			}
			if err := os.MkdirAll(target, 0o755); err != nil {
				return services.Wrap(services.ErrConfiguration, "cli", "slice-subs", "create output directory", err)
			}

			namer := planner.New(cfg, nil, logger)
			results := subtitles.NewSlicer(cfg, namer, logger).Slice(track, list, target)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, sliceTable(results))
			for _, result := range results {
				if result.Status == chapters.SliceError {
					return fmt.Errorf("%w: chapter %d: %s", errItemsFailed, result.ChapterIndex, result.Message)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sheetPath, "chapters", "", "Chapter sheet (YAML)")
	cmd.Flags().StringVar(&outDir, "out", ".", "Output directory for the chapter SRT files")
	cmd.Flags().Float64Var(&offset, "offset", 0, "Shift subtitles by this many seconds")
	cmd.Flags().Float64Var(&duration, "duration", 0, "Media duration in seconds, used when the last chapter has no end")
	_ = cmd.MarkFlagRequired("chapters")
	return cmd
}

func sliceTable(results []chapters.SubtitleSliceResult) string {
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		rows = append(rows, []string{
			strconv.Itoa(result.ChapterIndex),
			result.ChapterTitle,
			string(result.Status),
			strconv.Itoa(result.EntryCount),
			strconv.Itoa(result.FilteredCount),
			result.Message,
		})
	}
	return renderTable(tableSpec{
		Title:   "Subtitles",
		Headers: []string{"#", "Title", "Status", "Cues", "Filtered", "Message"},
		Rows:    rows,
		Aligns:  []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	})
}
