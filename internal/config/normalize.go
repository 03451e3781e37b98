package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranscription()
	c.normalizeSpeakers()
	if c.API.MaxUploadMiB <= 0 {
		c.API.MaxUploadMiB = defaultMaxUploadMiB
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("AUDIOSCORE_BASE_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.BaseDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.BaseDir) == "" {
		c.Paths.BaseDir = defaultBaseDir
	}
	var err error
	if c.Paths.BaseDir, err = expandPath(c.Paths.BaseDir); err != nil {
		return fmt.Errorf("paths.base_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeTranscription() {
	if value, ok := os.LookupEnv("WHISPER_COMMAND"); ok && strings.TrimSpace(value) != "" {
		c.Transcription.Command = strings.TrimSpace(value)
	}
	c.Transcription.Command = strings.TrimSpace(c.Transcription.Command)
	if c.Transcription.Command == "" {
		c.Transcription.Command = defaultTranscriptionCommand
	}
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultTranscriptionModel
	}
	c.Transcription.Language = strings.ToLower(strings.TrimSpace(c.Transcription.Language))
	if c.Transcription.Language == "" {
		c.Transcription.Language = defaultTranscriptionLanguage
	}
	c.Transcription.OutputFormat = strings.ToLower(strings.TrimSpace(c.Transcription.OutputFormat))
	if c.Transcription.OutputFormat == "" {
		c.Transcription.OutputFormat = defaultTranscriptionFormat
	}
	if c.Transcription.TimeoutSeconds == 0 {
		c.Transcription.TimeoutSeconds = defaultTranscriptionTimeout
	}
}

func (c *Config) normalizeSpeakers() {
	c.Speakers.FirstLabel = strings.TrimSpace(c.Speakers.FirstLabel)
	if c.Speakers.FirstLabel == "" {
		c.Speakers.FirstLabel = defaultFirstSpeaker
	}
	c.Speakers.SecondLabel = strings.TrimSpace(c.Speakers.SecondLabel)
	if c.Speakers.SecondLabel == "" {
		c.Speakers.SecondLabel = defaultSecondSpeaker
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
