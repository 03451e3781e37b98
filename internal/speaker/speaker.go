// Package speaker attributes transcript segments to speakers and renders the
// annotated transcript returned to callers.
//
// Attribution is a strategy behind the Labeler interface. The shipped
// Alternating strategy is positional only and has no acoustic basis; a
// diarization model can replace it without touching the pipeline.
package speaker

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"audioscore/internal/transcript"
)

const (
	DefaultFirst  = "Interviewer"
	DefaultSecond = "Candidate"
)

// Labeler assigns one speaker label per segment. The returned slice must have
// the same length as segments.
type Labeler interface {
	Label(segments []transcript.Segment) []string
}

// Alternating labels even-indexed segments First and odd-indexed segments Second.
type Alternating struct {
	First  string
	Second string
}

// NewAlternating returns an Alternating labeler, defaulting blank labels.
func NewAlternating(first, second string) Alternating {
	if strings.TrimSpace(first) == "" {
		first = DefaultFirst
	}
	if strings.TrimSpace(second) == "" {
		second = DefaultSecond
	}
	return Alternating{First: first, Second: second}
}

func (a Alternating) Label(segments []transcript.Segment) []string {
	labels := make([]string, len(segments))
	for i := range segments {
		if i%2 == 0 {
			labels[i] = a.First
		} else {
			labels[i] = a.Second
		}
	}
	return labels
}

// Render formats each segment as "<label> [<start>-<end>s]: <text>", one per
// line. Times use one decimal place. Missing labels render as empty strings.
func Render(segments []transcript.Segment, labels []string) string {
	lines := make([]string, len(segments))
	for i, seg := range segments {
		var label string
		if i < len(labels) {
			label = labels[i]
		}
		lines[i] = fmt.Sprintf("%s [%s-%ss]: %s", label, formatSeconds(seg.Start), formatSeconds(seg.End), seg.Text)
	}
	return strings.Join(lines, "\n")
}

// formatSeconds renders v with one decimal place. Exact ties (odd multiples
// of 0.25) round away from zero; everything else rounds its exact binary
// value to the nearest tenth.
func formatSeconds(v float64) string {
	if q := v * 4; q == math.Trunc(q) && math.Mod(q, 2) != 0 {
		v = math.Round(v*10) / 10
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Summarize labels segments with l and renders the annotated transcript.
func Summarize(l Labeler, segments []transcript.Segment) string {
	return Render(segments, l.Label(segments))
}
