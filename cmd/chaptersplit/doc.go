// Package main hosts the chaptersplit CLI entrypoint and command graph.
//
// The Cobra command tree turns terminal invocations into workflow runs:
// splitting a YouTube video or local file into per-chapter segments,
// previewing plans, slicing subtitle files against a chapter sheet, checking
// external tools, and scaffolding configuration. Configuration resolution,
// .env loading, and logger setup live here so subcommands stay declarative
// while the heavy lifting happens in the internal packages.
package main
