// Package workspace stages uploaded audio on disk for the external
// transcription tool and removes every artifact an analysis created.
//
// Each call to Stage produces a StagedFile with a UUID-derived name and a
// matching output directory, so concurrent analyses sharing one base
// directory never collide. Release is idempotent: files that are already gone
// are not errors.
package workspace
