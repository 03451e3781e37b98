// Package whisper invokes the openai-whisper command line tool against a
// staged audio file.
//
// The tool is run with a fixed model and language and an explicit
// --output_dir, so the tabular artifact path is derived from the source file
// name instead of discovered by scanning. Failures are tagged with
// services.ErrTranscription, or services.ErrTranscriptionTimeout when the
// configured deadline expires. Invocations are never retried.
package whisper
