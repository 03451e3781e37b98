package transcript

import (
	"math"
	"os"
	"strconv"
	"strings"

	"audioscore/internal/services"
)

const minColumns = 3

// Parse converts tabular transcription output into segments, preserving row
// order. The first line is always treated as a header.
func Parse(text string) []Segment {
	lines := strings.Split(text, "\n")
	if len(lines) <= 1 {
		return []Segment{}
	}

	segments := make([]Segment, 0, len(lines)-1)
	for _, line := range lines[1:] {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < minColumns {
			continue
		}
		segments = append(segments, Segment{
			Start: parseSeconds(cols[0]),
			End:   parseSeconds(cols[1]),
			Text:  cols[2],
		})
	}
	return segments
}

// ReadArtifact loads and parses the tabular artifact at path.
func ReadArtifact(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrArtifactRead, "parse", "read artifact", path, err)
	}
	return Parse(string(data)), nil
}

// parseSeconds returns NaN for malformed values.
func parseSeconds(value string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
