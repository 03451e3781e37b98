package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"audioscore/internal/config"
	"audioscore/internal/testsupport"
	"audioscore/internal/transcript"
	"audioscore/internal/workspace"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	audioPath  string
}

func setupCLITestEnv(t *testing.T, whisperScript string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("AUDIOSCORE_BASE_DIR", "")
	t.Setenv("WHISPER_COMMAND", "")

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedWhisper(whisperScript))
	cfg.Logging.Level = "error"

	configPath := filepath.Join(base, "audioscore.toml")
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(configPath, encoded, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	audioPath := filepath.Join(base, "interview.m4a")
	if err := os.WriteFile(audioPath, []byte("fake audio"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	return &cliTestEnv{cfg: cfg, configPath: configPath, audioPath: audioPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestAnalyzePrintsJSON(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WhisperTSVScript)

	out, _, err := runCLI(t, []string{"analyze", env.audioPath}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if payload["score"] != 0.1 {
		t.Fatalf("unexpected score %v", payload["score"])
	}
	if payload["summary"] != "Interviewer [0.0-1.5s]: hello world\nCandidate [1.5-3.0s]: how are you" {
		t.Fatalf("unexpected summary %v", payload["summary"])
	}
	if _, ok := payload["segments"]; ok {
		t.Fatal("segments should only be printed with --segments")
	}

	for _, name := range testsupport.ListFiles(t, env.cfg.Paths.BaseDir) {
		if name != workspace.OutputSubdir {
			t.Fatalf("artifact left behind: %s", name)
		}
	}
}

func TestAnalyzeWithSegments(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WhisperTSVScript)

	out, _, err := runCLI(t, []string{"analyze", "--json", "--segments", env.audioPath}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var payload analyzeOutput
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(payload.Segments) != 2 || payload.Segments[1].Text != "how are you" {
		t.Fatalf("unexpected segments %+v", payload.Segments)
	}
	if payload.Segments[1].Start == nil || *payload.Segments[1].Start != 1.5 {
		t.Fatalf("unexpected start %+v", payload.Segments[1].Start)
	}
}

func TestAnalyzeReportsTranscriptionFailure(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WhisperFailScript)

	_, _, err := runCLI(t, []string{"analyze", env.audioPath}, env.configPath)
	if err == nil {
		t.Fatal("expected failure")
	}
	requireContains(t, err.Error(), "audio analysis failed")
	requireContains(t, err.Error(), "model failed to load")
}

func TestAnalyzeMissingInput(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WhisperTSVScript)

	_, _, err := runCLI(t, []string{"analyze", filepath.Join(t.TempDir(), "missing.mp3")}, env.configPath)
	if err == nil {
		t.Fatal("expected failure")
	}
	requireContains(t, err.Error(), "read audio file")
}

func TestDoctor(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WhisperTSVScript)

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "Whisper command")
	requireContains(t, out, "Work directory")
}

func TestDoctorReportsMissingWhisper(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WhisperTSVScript)
	if err := os.Remove(env.cfg.Transcription.Command); err != nil {
		t.Fatalf("remove stub: %v", err)
	}

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err == nil {
		t.Fatal("expected doctor to fail")
	}
	requireContains(t, out, "FAIL")
	requireContains(t, err.Error(), "1 of 3 checks failed")
}

func TestConfigInitShowAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WhisperTSVScript)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "# source: "+env.configPath)
	requireContains(t, out, env.cfg.Transcription.Command)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, nil)
	requireContains(t, out, "only")
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}

func TestSegmentsForJSONMapsNaNToNull(t *testing.T) {
	segments := transcript.Parse("start\tend\ttext\nabc\t2.0\thi\n")
	out := segmentsForJSON(segments)
	if len(out) != 1 || out[0].Start != nil || out[0].End == nil || *out[0].End != 2.0 {
		t.Fatalf("unexpected mapping %+v", out)
	}
	if _, err := json.Marshal(out); err != nil {
		t.Fatalf("marshal: %v", err)
	}
}
