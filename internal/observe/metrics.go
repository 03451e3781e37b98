// Package observe provides OpenTelemetry metrics for the analysis pipeline.
//
// Instruments are created from a metric.MeterProvider so tests can inject a
// ManualReader. InitProvider installs a global provider backed by the
// Prometheus exporter for scraping via /metrics.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all audioscore metrics.
const meterName = "audioscore"

// Metrics holds the pipeline instruments. All fields are safe for concurrent use.
type Metrics struct {
	// AnalysisDuration tracks end-to-end Analyze latency.
	AnalysisDuration metric.Float64Histogram

	// TranscriptionDuration tracks time spent in the external whisper process.
	TranscriptionDuration metric.Float64Histogram

	// AnalysisRequests counts Analyze calls. Use with attribute:
	//   attribute.String("status", ...)
	AnalysisRequests metric.Int64Counter

	// TranscriptSegments records how many segments each transcript produced.
	TranscriptSegments metric.Int64Histogram

	// InFlight tracks analyses currently running.
	InFlight metric.Int64UpDownCounter
}

// transcriptionBuckets covers subprocess runtimes from a few seconds up to
// the default ten minute timeout.
var transcriptionBuckets = []float64{
	1, 2.5, 5, 10, 30, 60, 120, 300, 600,
}

// NewMetrics creates a fully initialised Metrics struct using mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.AnalysisDuration, err = m.Float64Histogram("audioscore.analysis.duration",
		metric.WithDescription("Latency of a complete audio analysis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(transcriptionBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscriptionDuration, err = m.Float64Histogram("audioscore.transcription.duration",
		metric.WithDescription("Latency of the external transcription process."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(transcriptionBuckets...),
	); err != nil {
		return nil, err
	}
	if met.AnalysisRequests, err = m.Int64Counter("audioscore.analysis.requests",
		metric.WithDescription("Number of analyses by outcome."),
	); err != nil {
		return nil, err
	}
	if met.TranscriptSegments, err = m.Int64Histogram("audioscore.transcript.segments",
		metric.WithDescription("Segments parsed per transcript."),
	); err != nil {
		return nil, err
	}
	if met.InFlight, err = m.Int64UpDownCounter("audioscore.analysis.in_flight",
		metric.WithDescription("Analyses currently running."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// RecordAnalysis records the outcome and latency of one analysis. status is
// "ok" or a failure classification.
func (m *Metrics) RecordAnalysis(ctx context.Context, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.AnalysisRequests.Add(ctx, 1, attrs)
	m.AnalysisDuration.Record(ctx, elapsed.Seconds(), attrs)
}

// RecordTranscription records the latency of one whisper invocation.
func (m *Metrics) RecordTranscription(ctx context.Context, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TranscriptionDuration.Record(ctx, elapsed.Seconds())
}

// RecordSegments records the segment count of one transcript.
func (m *Metrics) RecordSegments(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.TranscriptSegments.Record(ctx, int64(n))
}

// TrackInFlight increments the in-flight gauge and returns a func that
// decrements it.
func (m *Metrics) TrackInFlight(ctx context.Context) func() {
	if m == nil {
		return func() {}
	}
	m.InFlight.Add(ctx, 1)
	return func() { m.InFlight.Add(ctx, -1) }
}
