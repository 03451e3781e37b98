// Package analysis orchestrates the audio analysis pipeline: stage the upload,
// run the external transcriber, parse its timestamp table, label speaker
// turns, and score the transcript.
//
// Analyze is strictly sequential and owns the workspace for its invocation.
// Every exit path releases what was staged, and every failure surfaces as a
// single *Error that wraps the underlying cause, so callers never observe a
// partial result.
package analysis
