// Package services defines shared utilities consumed by the split pipeline and
// its external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and chapter indexes
//     for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into validation, tool, and timeout categories.
//
// Use these helpers when wiring new pipeline logic so error handling and
// observability stay uniform.
package services
