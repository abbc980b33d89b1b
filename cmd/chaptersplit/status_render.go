package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"chaptersplit/internal/chapters"
	"chaptersplit/internal/language"
	"chaptersplit/internal/workflow"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

// healthLines renders one status line per check, led by a summary line.
func healthLines(checks []workflow.StageHealth, colorize bool) []string {
	lines := make([]string, 0, len(checks)+1)
	var missing []string
	for _, check := range checks {
		if !check.Ready && !check.Optional {
			missing = append(missing, check.Name)
		}
	}
	if len(missing) == 0 {
		lines = append(lines, renderStatusLine("Summary", statusOK, "ready to split", colorize))
	} else {
		lines = append(lines, renderStatusLine("Summary", statusError, "missing: "+strings.Join(missing, ", "), colorize))
	}
	for _, check := range checks {
		kind := statusOK
		switch {
		case !check.Ready && check.Optional:
			kind = statusWarn
		case !check.Ready:
			kind = statusError
		}
		lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	return lines
}

// subtitleStatusLine summarizes the subtitle stage of a run.
func subtitleStatusLine(report workflow.SubtitleReport, colorize bool) string {
	if report.Skipped {
		return renderStatusLine("Subtitles", statusInfo, "skipped: "+report.Reason, colorize)
	}
	var ok, empty, failed int
	for _, result := range report.Results {
		switch result.Status {
		case chapters.SliceOK:
			ok++
		case chapters.SliceEmpty:
			empty++
		default:
			failed++
		}
	}
	kind := statusOK
	switch {
	case failed > 0:
		kind = statusError
	case len(report.SyncIssues) > 0:
		kind = statusWarn
	}
	message := fmt.Sprintf("%d sliced, %d empty, %d failed", ok, empty, failed)
	if report.Language != "" {
		message += " (" + language.DisplayName(report.Language) + ")"
	}
	return renderStatusLine("Subtitles", kind, message, colorize)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
