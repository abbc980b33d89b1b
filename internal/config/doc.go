// Package config loads, normalizes, and validates chaptersplit configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CHAPTERSPLIT_OUT_DIR. The Config type centralizes every knob the planner,
// cutter, subtitle slicer, and providers need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical presets, and clear validation errors.
package config
