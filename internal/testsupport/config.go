package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"audioscore/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.BaseDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTimeoutSeconds overrides the transcription timeout on the test config.
func WithTimeoutSeconds(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcription.TimeoutSeconds = seconds
	}
}

// WithStubbedWhisper writes script as an executable named "whisper-stub" and
// points the transcription command at it.
func WithStubbedWhisper(script string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcription.Command = WriteExecutable(b.t, filepath.Join(b.baseDir, "bin"), "whisper-stub", script)
	}
}

// WriteExecutable writes a shell script into dir and returns its path.
func WriteExecutable(t testing.TB, dir, name, script string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.BaseDir)
}
