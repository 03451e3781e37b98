package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateSpeakers(); err != nil {
		return err
	}
	if c.API.MaxUploadMiB <= 0 {
		return errors.New("api.max_upload_mib must be positive")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.BaseDir) == "" {
		return errors.New("paths.base_dir must be set")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	t := c.Transcription
	if strings.TrimSpace(t.Command) == "" {
		return errors.New("transcription.command must be set")
	}
	if strings.TrimSpace(t.Model) == "" {
		return errors.New("transcription.model must be set")
	}
	switch t.OutputFormat {
	case "tsv", "all":
	default:
		return fmt.Errorf("transcription.output_format must be \"tsv\" or \"all\", got %q", t.OutputFormat)
	}
	if t.TimeoutSeconds < 0 {
		return errors.New("transcription.timeout_seconds must be >= 0 (0 uses the default)")
	}
	return nil
}

func (c *Config) validateSpeakers() error {
	if c.Speakers.FirstLabel == c.Speakers.SecondLabel {
		return fmt.Errorf("speakers.first_label and speakers.second_label must differ (both %q)", c.Speakers.FirstLabel)
	}
	return nil
}
