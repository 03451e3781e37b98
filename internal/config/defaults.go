package config

const (
	defaultConfigPath            = "~/.config/audioscore/config.toml"
	defaultBaseDir               = "~/.local/share/audioscore/work"
	defaultLogDir                = "~/.local/share/audioscore/logs"
	defaultAPIBind               = "127.0.0.1:7490"
	defaultTranscriptionCommand  = "whisper"
	defaultTranscriptionModel    = "small"
	defaultTranscriptionLanguage = "en"
	defaultTranscriptionFormat   = "tsv"
	defaultTranscriptionTimeout  = 600
	defaultFirstSpeaker          = "Interviewer"
	defaultSecondSpeaker         = "Candidate"
	defaultMaxUploadMiB          = 100
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			BaseDir: defaultBaseDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Transcription: Transcription{
			Command:        defaultTranscriptionCommand,
			Model:          defaultTranscriptionModel,
			Language:       defaultTranscriptionLanguage,
			OutputFormat:   defaultTranscriptionFormat,
			TimeoutSeconds: defaultTranscriptionTimeout,
		},
		Speakers: Speakers{
			FirstLabel:  defaultFirstSpeaker,
			SecondLabel: defaultSecondSpeaker,
		},
		API: API{
			MaxUploadMiB: defaultMaxUploadMiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
