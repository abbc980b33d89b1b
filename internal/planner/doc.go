// Package planner maps a chapter timeline onto output files.
//
// BuildPlan names each chapter through the configured template, places the
// files under "<title>-<id>", and validates the whole plan before any cut
// runs. FilterExisting and EstimateTime support skip-existing runs and the
// dry-run summary.
package planner
