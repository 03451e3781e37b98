package analysis

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"audioscore/internal/services"
	"audioscore/internal/transcript"
	"audioscore/internal/workspace"
)

// DefaultExtension is used when the declared filename carries no usable extension.
const DefaultExtension = "mp3"

// Pipeline stage names, reported in errors, logs and the request context.
const (
	StageValidate   = "validate"
	StageStage      = "stage"
	StageTranscribe = "transcribe"
	StageParse      = "parse"
)

// AudioBlob is an uploaded audio payload and the filename the client declared.
type AudioBlob struct {
	Data     []byte
	Filename string
}

// Result is returned to callers on success.
type Result struct {
	Score   float64 `json:"score"`
	Summary string  `json:"summary"`
	// Segments are the parsed timed segments, for local inspection only.
	Segments []transcript.Segment `json:"-"`
}

// Workspace stages audio and releases per-invocation artifacts.
type Workspace interface {
	Stage(ctx context.Context, data []byte, ext string) (*workspace.StagedFile, error)
	Release(ctx context.Context, staged *workspace.StagedFile, extras ...string) error
}

// Transcriber produces a tabular artifact for source inside outputDir and
// returns its path.
type Transcriber interface {
	Transcribe(ctx context.Context, source, outputDir string) (string, error)
}

// Error is the uniform failure returned by Analyze. errors.Is matches both
// services.ErrAnalysis and the markers carried by Err.
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("audio analysis failed at %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{services.ErrAnalysis, e.Err}
}

// Extension derives the staging extension from a declared filename. Only
// ASCII letters and digits are accepted; anything else falls back to
// DefaultExtension.
func Extension(filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(strings.TrimSpace(filename)), ".")
	if ext == "" {
		return DefaultExtension
	}
	for _, r := range ext {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return DefaultExtension
		}
	}
	return strings.ToLower(ext)
}
