package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"audioscore/internal/analysis"
	"audioscore/internal/scoring"
	"audioscore/internal/transcript"
)

type segmentOutput struct {
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Text  string   `json:"text"`
}

type analyzeOutput struct {
	Score    float64         `json:"score"`
	Summary  string          `json:"summary"`
	Segments []segmentOutput `json:"segments,omitempty"`
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var showSegments bool

	cmd := &cobra.Command{
		Use:   "analyze <audio-file>",
		Short: "Transcribe an audio file and print its score and summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read audio file: %w", err)
			}

			pipeline := newPipeline(cfg, logger, nil)
			result, err := pipeline.Analyze(cmd.Context(), analysis.AudioBlob{
				Data:     data,
				Filename: filepath.Base(path),
			})
			if err != nil {
				return err
			}

			if jsonOutput || !isTerminal(cmd.OutOrStdout()) {
				out := analyzeOutput{Score: result.Score, Summary: result.Summary}
				if showSegments {
					out.Segments = segmentsForJSON(result.Segments)
				}
				return writeJSON(cmd, out)
			}

			words := scoring.WordCount(transcript.Flatten(result.Segments))
			stdout := cmd.OutOrStdout()
			fmt.Fprintln(stdout, renderTable(
				[]string{"File", "Size", "Segments", "Words", "Score"},
				[][]string{{
					filepath.Base(path),
					humanize.Bytes(uint64(len(data))),
					strconv.Itoa(len(result.Segments)),
					strconv.Itoa(words),
					strconv.FormatFloat(result.Score, 'f', 2, 64),
				}},
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			if showSegments && len(result.Segments) > 0 {
				fmt.Fprintln(stdout, renderSegments(result.Segments))
			}
			fmt.Fprintln(stdout)
			fmt.Fprintln(stdout, result.Summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON even when attached to a terminal")
	cmd.Flags().BoolVar(&showSegments, "segments", false, "Include the parsed transcript segments")
	return cmd
}

func renderSegments(segments []transcript.Segment) string {
	rows := make([][]string, 0, len(segments))
	for i, seg := range segments {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(seg.Start, 'f', 1, 64),
			strconv.FormatFloat(seg.End, 'f', 1, 64),
			seg.Text,
		})
	}
	return renderTable(
		[]string{"#", "Start", "End", "Text"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
	)
}

// segmentsForJSON maps unparseable timestamps (NaN) to null.
func segmentsForJSON(segments []transcript.Segment) []segmentOutput {
	out := make([]segmentOutput, 0, len(segments))
	for _, seg := range segments {
		out = append(out, segmentOutput{
			Start: finiteOrNil(seg.Start),
			End:   finiteOrNil(seg.End),
			Text:  seg.Text,
		})
	}
	return out
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
