// Package services defines shared utilities consumed by the analysis pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp stage names and request correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     (workspace, transcription, artifact read) so callers can map them onto
//     a single analysis failure.
//
// Use these helpers when wiring new pipeline steps so error handling and
// observability stay uniform.
package services
