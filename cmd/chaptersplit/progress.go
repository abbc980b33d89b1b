package main

import (
	"io"

	"github.com/schollz/progressbar/v3"

	"chaptersplit/internal/cutter"
)

// newProgress returns a cut progress callback drawing a bar on w, and a
// finish function. The bar is only drawn on terminals.
func newProgress(w io.Writer, total int, enabled bool) (cutter.ProgressFunc, func()) {
	if !enabled || total == 0 {
		return nil, func() {}
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("cutting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
	)
	progress := func(completed, _ int, label string) {
		bar.Describe(label)
		_ = bar.Set(completed)
	}
	return progress, func() { _ = bar.Finish() }
}
