// Package scoring derives the heuristic confidence score from a flattened
// transcript. Longer answers score higher, capped at MaxScore.
package scoring

import "strings"

const (
	// WordsPerPoint is the number of words worth one score point.
	WordsPerPoint = 50
	MinScore      = 0.0
	MaxScore      = 10.0
)

// WordCount counts runs of non-whitespace. Empty or whitespace-only text has
// zero words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Score returns WordCount(text)/WordsPerPoint clamped to [MinScore, MaxScore].
func Score(text string) float64 {
	return clamp(float64(WordCount(text)) / WordsPerPoint)
}

func clamp(v float64) float64 {
	return min(MaxScore, max(MinScore, v))
}
