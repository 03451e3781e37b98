package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrWorkspace            = errors.New("workspace error")
	ErrTranscription        = errors.New("transcription error")
	ErrTranscriptionTimeout = errors.New("transcription timeout")
	ErrArtifactRead         = errors.New("artifact read error")
	ErrAnalysis             = errors.New("analysis error")
	ErrValidation           = errors.New("validation error")
	ErrConfiguration        = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrAnalysis
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short classification label for err, suitable for metrics
// attributes and structured log fields.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTranscriptionTimeout):
		return "transcription_timeout"
	case errors.Is(err, ErrTranscription):
		return "transcription"
	case errors.Is(err, ErrArtifactRead):
		return "artifact_read"
	case errors.Is(err, ErrWorkspace):
		return "workspace"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "unknown"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
