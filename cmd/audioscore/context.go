package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"audioscore/internal/analysis"
	"audioscore/internal/config"
	"audioscore/internal/logging"
	"audioscore/internal/observe"
	"audioscore/internal/services/whisper"
	"audioscore/internal/speaker"
	"audioscore/internal/workspace"
)

type commandContext struct {
	configFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

// newPipeline wires the analysis pipeline from configuration.
func newPipeline(cfg *config.Config, logger *slog.Logger, metrics *observe.Metrics) *analysis.Pipeline {
	transcriber := whisper.NewService(whisper.Config{
		Command:      cfg.Transcription.Command,
		Model:        cfg.Transcription.Model,
		Language:     cfg.Transcription.Language,
		OutputFormat: cfg.Transcription.OutputFormat,
		Timeout:      cfg.TranscriptionTimeout(),
	}, logger)

	return analysis.New(
		workspace.NewManager(cfg.Paths.BaseDir, logger),
		transcriber,
		analysis.WithLabeler(speaker.NewAlternating(cfg.Speakers.FirstLabel, cfg.Speakers.SecondLabel)),
		analysis.WithMetrics(metrics),
		analysis.WithLogger(logger),
	)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
