package whisper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"audioscore/internal/logging"
	"audioscore/internal/services"
)

// CommandRunner executes name with args and returns combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Service provides whisper transcription capabilities.
type Service struct {
	cfg           Config
	logger        *slog.Logger
	commandRunner CommandRunner
}

// NewService creates a whisper service with the given configuration.
func NewService(cfg Config, logger *slog.Logger) *Service {
	return &Service{
		cfg:    cfg.withDefaults(),
		logger: logging.NewComponentLogger(logger, "whisper"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.cfg.Model
}

// Command returns the configured executable.
func (s *Service) Command() string {
	return s.cfg.Command
}

// ArtifactPath returns where whisper writes the tabular output for source.
func ArtifactPath(source, outputDir string) string {
	base := filepath.Base(source)
	return filepath.Join(outputDir, strings.TrimSuffix(base, filepath.Ext(base))+ArtifactExt)
}

// Transcribe runs whisper on source, writing into outputDir, and returns the
// path of the tabular artifact. It blocks until the process exits, the
// timeout elapses, or ctx is cancelled; in the latter two cases the process
// is killed.
func (s *Service) Transcribe(ctx context.Context, source, outputDir string) (string, error) {
	if source == "" {
		return "", services.Wrap(services.ErrTranscription, "transcribe", "", "source path required", nil)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrWorkspace, "transcribe", "ensure output dir", outputDir, err)
	}

	runCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	logger := logging.WithContext(ctx, s.logger)
	args := s.buildArgs(source, outputDir)
	logger.Debug("whisper starting",
		logging.String("command", s.cfg.Command),
		logging.String("model", s.cfg.Model),
		logging.String("source", source),
	)

	started := time.Now()
	output, err := s.run(runCtx, s.cfg.Command, args...)
	elapsed := time.Since(started)
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return "", services.Wrap(services.ErrTranscription, "transcribe", s.cfg.Command, "cancelled", ctx.Err())
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			return "", services.Wrap(services.ErrTranscriptionTimeout, "transcribe", s.cfg.Command,
				fmt.Sprintf("exceeded %s", s.cfg.Timeout), err)
		default:
			return "", services.Wrap(services.ErrTranscription, "transcribe", s.cfg.Command,
				strings.TrimSpace(string(output)), err)
		}
	}

	logger.Info("whisper finished",
		logging.String("model", s.cfg.Model),
		logging.Duration("elapsed", elapsed),
	)
	return ArtifactPath(source, outputDir), nil
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.WaitDelay = waitDelay
	return cmd.CombinedOutput()
}

// buildArgs constructs the whisper command arguments.
func (s *Service) buildArgs(source, outputDir string) []string {
	return []string{
		source,
		"--model", s.cfg.Model,
		"--language", s.cfg.Language,
		"--output_dir", outputDir,
		"--output_format", s.cfg.OutputFormat,
	}
}
