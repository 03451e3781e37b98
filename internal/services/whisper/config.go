package whisper

import "time"

// Config captures runtime settings for whisper CLI invocations.
type Config struct {
	// Command is the whisper executable (name on PATH or absolute path).
	Command string
	// Model is the whisper model size (e.g., "small").
	Model string
	// Language is the spoken language passed to --language.
	Language string
	// OutputFormat is passed to --output_format; "tsv" or "all".
	OutputFormat string
	// Timeout bounds a single invocation. Zero disables the deadline.
	Timeout time.Duration
}

// Whisper CLI defaults.
const (
	DefaultCommand      = "whisper"
	DefaultModel        = "small"
	DefaultLanguage     = "en"
	DefaultOutputFormat = "tsv"
	// ArtifactExt is the extension of the tabular artifact consumed downstream.
	ArtifactExt = ".tsv"
	// waitDelay bounds how long we wait for output pipes after the process is killed.
	waitDelay = 5 * time.Second
)

func (c Config) withDefaults() Config {
	if c.Command == "" {
		c.Command = DefaultCommand
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.OutputFormat == "" {
		c.OutputFormat = DefaultOutputFormat
	}
	return c
}
