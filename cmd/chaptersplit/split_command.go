package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"chaptersplit/internal/config"
	"chaptersplit/internal/cutter"
	"chaptersplit/internal/services"
	"chaptersplit/internal/timecode"
	"chaptersplit/internal/workflow"
)

// runOptions holds the flags shared by split and plan. Only flags the user
// set are applied on top of the loaded configuration.
type runOptions struct {
	provider     string
	chapterSheet string

	outDir       string
	workDir      string
	quality      string
	crf          int
	preset       string
	audioBitrate string
	template     string
	maxParallel  int
	tolerance    float64
	skipExisting bool
	noSubs       bool
	subsOffset   float64
}

func (o *runOptions) register(flags *pflag.FlagSet) {
	flags.StringVar(&o.provider, "provider", string(workflow.ProviderAuto), "Source provider: auto, youtube, or local")
	flags.StringVar(&o.chapterSheet, "chapters", "", "Chapter sheet (YAML) for local files")
	flags.StringVar(&o.outDir, "out", "", "Output directory")
	flags.StringVar(&o.workDir, "work", "", "Work directory for downloads and subtitles")
	flags.StringVar(&o.quality, "quality", "", "Maximum download quality (e.g. 720p, 1080p)")
	flags.IntVar(&o.crf, "crf", 0, "x264 CRF (0-51)")
	flags.StringVar(&o.preset, "preset", "", "x264 preset")
	flags.StringVar(&o.audioBitrate, "audio-bitrate", "", "Audio bitrate (e.g. 192k)")
	flags.StringVar(&o.template, "template", "", "File name template, e.g. \"{n:02d} - {title}\"")
	flags.IntVar(&o.maxParallel, "max-parallel", 0, "Concurrent cuts (1-8)")
	flags.Float64Var(&o.tolerance, "tolerance", 0, "Duration tolerance in seconds")
	flags.BoolVar(&o.skipExisting, "skip-existing", true, "Skip outputs that already exist with the right duration")
	flags.BoolVar(&o.noSubs, "no-subs", false, "Do not process subtitles")
	flags.Float64Var(&o.subsOffset, "subs-offset", 0, "Shift subtitles by this many seconds")
}

func (o *runOptions) apply(flags *pflag.FlagSet, cfg *config.Config) error {
	var err error
	if flags.Changed("out") {
		if cfg.Paths.OutDir, err = config.ExpandPath(o.outDir); err != nil {
			return fmt.Errorf("resolve --out: %w", err)
		}
	}
	if flags.Changed("work") {
		if cfg.Paths.WorkDir, err = config.ExpandPath(o.workDir); err != nil {
			return fmt.Errorf("resolve --work: %w", err)
		}
	}
	if flags.Changed("quality") {
		cfg.Download.Quality = strings.ToLower(strings.TrimSpace(o.quality))
	}
	if flags.Changed("crf") {
		cfg.Encoding.CRF = o.crf
	}
	if flags.Changed("preset") {
		cfg.Encoding.Preset = strings.ToLower(strings.TrimSpace(o.preset))
	}
	if flags.Changed("audio-bitrate") {
		cfg.Encoding.AudioBitrate = strings.TrimSpace(o.audioBitrate)
	}
	if flags.Changed("template") {
		cfg.Naming.Template = o.template
	}
	if flags.Changed("max-parallel") {
		cfg.Parallel.MaxWorkers = o.maxParallel
	}
	if flags.Changed("tolerance") {
		cfg.Validation.ToleranceSeconds = o.tolerance
	}
	if flags.Changed("skip-existing") {
		cfg.Run.SkipExisting = o.skipExisting
	}
	if o.noSubs {
		cfg.Subtitles.Enabled = false
	}
	if flags.Changed("subs-offset") {
		cfg.Subtitles.OffsetSeconds = o.subsOffset
	}
	if err := cfg.Validate(); err != nil {
		return services.Wrap(services.ErrConfiguration, "cli", "flags", "", err)
	}
	return nil
}

func (o *runOptions) request(ref string) workflow.Request {
	return workflow.Request{
		Ref:      strings.TrimSpace(ref),
		Provider: workflow.ProviderKind(o.provider),
	}
}

func newSplitCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions
	var dryRun bool
	var forceRedownload bool

	cmd := &cobra.Command{
		Use:   "split <url|file>",
		Short: "Split a video into one file per chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := opts.apply(cmd.Flags(), cfg); err != nil {
				return err
			}
			if dryRun {
				cfg.Run.DryRun = true
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}
			if !cfg.Run.DryRun {
				if err := cfg.EnsureDirectories(); err != nil {
					return services.Wrap(services.ErrConfiguration, "cli", "directories", "", err)
				}
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			progressEnabled := shouldColorize(cmd.ErrOrStderr())

			var progress cutter.ProgressFunc
			finish := func() {}
			req := opts.request(args[0])
			req.ForceRedownload = forceRedownload
			req.OnPlan = func(report workflow.Report) {
				fmt.Fprintln(out, planTable(report))
				progress, finish = newProgress(cmd.ErrOrStderr(), len(report.Plan), progressEnabled)
			}
			req.Progress = func(completed, total int, label string) {
				if progress != nil {
					progress(completed, total, label)
				}
			}

			runner := workflow.New(cfg, logger, workflow.WithChapterSheet(opts.chapterSheet))
			report, err := runner.Run(cmd.Context(), req)
			finish()
			if err != nil {
				return err
			}

			if report.DryRun {
				fmt.Fprintln(out, renderStatusLine("Dry run", statusInfo,
					fmt.Sprintf("estimated processing time %s", timecode.FormatDuration(report.Estimate.Seconds())), colorize))
				return nil
			}
			fmt.Fprintln(out, resultsTable(report.Results))
			fmt.Fprintln(out, subtitleStatusLine(report.Subtitles, colorize))
			fmt.Fprintln(out, statsTable(report.Stats, report.Elapsed))
			if report.Failed() {
				return fmt.Errorf("%w: %d of %d", errItemsFailed, report.Stats.Failed, report.Stats.TotalChapters)
			}
			return nil
		},
	}

	opts.register(cmd.Flags())
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the plan without downloading or cutting")
	cmd.Flags().BoolVar(&forceRedownload, "force-redownload", false, "Download the source again even if cached")
	return cmd
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions
	var format string

	cmd := &cobra.Command{
		Use:   "plan <url|file>",
		Short: "Print the split plan without cutting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != "table" && format != "toml" {
				return services.Wrap(services.ErrValidation, "cli", "plan", fmt.Sprintf("unknown format %q", format), nil)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := opts.apply(cmd.Flags(), cfg); err != nil {
				return err
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}

			runner := workflow.New(cfg, logger, workflow.WithChapterSheet(opts.chapterSheet))
			report, err := runner.Prepare(cmd.Context(), opts.request(args[0]))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "toml" {
				doc, err := planTOML(report)
				if err != nil {
					return err
				}
				fmt.Fprint(out, doc)
				return nil
			}
			fmt.Fprintln(out, planTable(report))
			fmt.Fprintf(out, "Output directory: %s\n", report.VideoDir)
			fmt.Fprintf(out, "Estimated processing time: %s\n", timecode.FormatDuration(report.Estimate.Seconds()))
			return nil
		},
	}

	opts.register(cmd.Flags())
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or toml")
	return cmd
}
