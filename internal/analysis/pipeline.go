package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"audioscore/internal/logging"
	"audioscore/internal/observe"
	"audioscore/internal/scoring"
	"audioscore/internal/services"
	"audioscore/internal/speaker"
	"audioscore/internal/transcript"
	"audioscore/internal/workspace"
)

// Pipeline runs analyses. It holds no per-request state and is safe for
// concurrent use when its collaborators are.
type Pipeline struct {
	workspace   Workspace
	transcriber Transcriber
	labeler     speaker.Labeler
	metrics     *observe.Metrics
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLabeler replaces the default alternating speaker labeler.
func WithLabeler(l speaker.Labeler) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.labeler = l
		}
	}
}

// WithMetrics records pipeline metrics on m.
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// New builds a Pipeline from its collaborators.
func New(ws Workspace, tr Transcriber, opts ...Option) *Pipeline {
	p := &Pipeline{
		workspace:   ws,
		transcriber: tr,
		labeler:     speaker.NewAlternating("", ""),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "analysis")
	return p
}

// Analyze stages blob, transcribes it, and returns the score and labeled
// summary. Staged files and transcription output are removed before Analyze
// returns, whatever the outcome.
func (p *Pipeline) Analyze(ctx context.Context, blob AudioBlob) (result Result, err error) {
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		ctx = services.WithRequestID(ctx, uuid.NewString())
	}
	logger := logging.WithContext(ctx, p.logger)

	started := time.Now()
	defer p.metrics.TrackInFlight(ctx)()
	defer func() {
		kind := services.Kind(err)
		p.metrics.RecordAnalysis(ctx, kind, time.Since(started))
		if err != nil {
			logging.ErrorWithContext(logger, "analysis failed", "analysis_failed",
				logging.Error(err),
				logging.String("error_kind", kind),
				logging.String(logging.FieldErrorHint, errorHint(kind)),
			)
		}
	}()

	if len(blob.Data) == 0 {
		return Result{}, &Error{Stage: StageValidate, Err: services.Wrap(services.ErrValidation, StageValidate, "", "empty audio payload", nil)}
	}

	staged, err := p.workspace.Stage(services.WithStage(ctx, StageStage), blob.Data, Extension(blob.Filename))
	if err != nil {
		return Result{}, &Error{Stage: StageStage, Err: err}
	}

	var artifact string
	defer func() {
		// Cleanup failures are logged by the workspace; they never replace the
		// analysis outcome.
		_ = p.workspace.Release(ctx, staged, artifact)
	}()

	transcribeStarted := time.Now()
	artifact, err = p.transcriber.Transcribe(services.WithStage(ctx, StageTranscribe), staged.Path, staged.OutputDir)
	p.metrics.RecordTranscription(ctx, time.Since(transcribeStarted))
	if err != nil {
		return Result{}, &Error{Stage: StageTranscribe, Err: err}
	}

	segments, err := p.readSegments(services.WithStage(ctx, StageParse), artifact)
	if err != nil {
		return Result{}, &Error{Stage: StageParse, Err: err}
	}
	p.metrics.RecordSegments(ctx, len(segments))

	summary := speaker.Summarize(p.labeler, segments)
	flattened := transcript.Flatten(segments)
	result = Result{
		Score:    scoring.Score(flattened),
		Summary:  summary,
		Segments: segments,
	}

	logger.Info("analysis complete",
		logging.Int("segments", len(segments)),
		logging.Int("words", scoring.WordCount(flattened)),
		logging.Float64("score", result.Score),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// errorHint suggests an operator action for a failure classification.
func errorHint(kind string) string {
	switch kind {
	case "validation":
		return "client sent an empty upload; no action needed"
	case "workspace":
		return "check base_dir exists and is writable"
	case "transcription":
		return "check the whisper installation and model; run audioscore doctor"
	case "transcription_timeout":
		return "raise transcription.timeout_seconds or use a smaller model"
	case "artifact_read":
		return "check transcription.output_format produces a tsv file"
	default:
		return "check logs for details"
	}
}

// readSegments parses the artifact and removes it straight away.
func (p *Pipeline) readSegments(ctx context.Context, artifact string) ([]transcript.Segment, error) {
	segments, err := transcript.ReadArtifact(artifact)
	if err != nil {
		return nil, err
	}
	_ = p.workspace.Release(ctx, nil, artifact)
	return segments, nil
}

var _ Workspace = (*workspace.Manager)(nil)
