package whisper_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"audioscore/internal/services"
	"audioscore/internal/services/whisper"
	"audioscore/internal/testsupport"
)

func TestTranscribeBuildsCommandContract(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	svc := whisper.NewService(whisper.Config{}, nil)

	var gotName string
	var gotArgs []string
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = append([]string(nil), args...)
		return nil, nil
	})

	artifact, err := svc.Transcribe(context.Background(), "/work/input-abc.m4a", outDir)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotName != "whisper" {
		t.Fatalf("unexpected command %q", gotName)
	}
	wantArgs := []string{
		"/work/input-abc.m4a",
		"--model", "small",
		"--language", "en",
		"--output_dir", outDir,
		"--output_format", "tsv",
	}
	if !reflect.DeepEqual(gotArgs, wantArgs) {
		t.Fatalf("args = %v\nwant %v", gotArgs, wantArgs)
	}
	if artifact != filepath.Join(outDir, "input-abc.tsv") {
		t.Fatalf("unexpected artifact path %q", artifact)
	}
	if info, err := os.Stat(outDir); err != nil || !info.IsDir() {
		t.Fatalf("expected output dir to be created: %v", err)
	}
}

func TestTranscribeHonoursConfig(t *testing.T) {
	svc := whisper.NewService(whisper.Config{Command: "/opt/whisper", Model: "medium", Language: "de", OutputFormat: "all"}, nil)
	var gotArgs []string
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != "/opt/whisper" {
			t.Fatalf("unexpected command %q", name)
		}
		gotArgs = args
		return nil, nil
	})
	if _, err := svc.Transcribe(context.Background(), filepath.Join(t.TempDir(), "a.wav"), t.TempDir()); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	joined := strings.Join(gotArgs, " ")
	for _, fragment := range []string{"--model medium", "--language de", "--output_format all"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in %q", fragment, joined)
		}
	}
	if svc.Model() != "medium" || svc.Command() != "/opt/whisper" {
		t.Fatalf("unexpected accessors %q %q", svc.Model(), svc.Command())
	}
}

func TestTranscribeDefaultsOutputDirToSourceDir(t *testing.T) {
	dir := t.TempDir()
	svc := whisper.NewService(whisper.Config{}, nil)
	svc.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) { return nil, nil })

	artifact, err := svc.Transcribe(context.Background(), filepath.Join(dir, "clip.mp3"), "")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if artifact != filepath.Join(dir, "clip.tsv") {
		t.Fatalf("unexpected artifact %q", artifact)
	}
}

func TestTranscribeRequiresSource(t *testing.T) {
	svc := whisper.NewService(whisper.Config{}, nil)
	if _, err := svc.Transcribe(context.Background(), "", t.TempDir()); !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected transcription error, got %v", err)
	}
}

func TestTranscribeRunsExternalProcess(t *testing.T) {
	dir := t.TempDir()
	stub := testsupport.WriteExecutable(t, filepath.Join(dir, "bin"), "whisper", testsupport.WhisperTSVScript)
	source := filepath.Join(dir, "input-1.mp3")
	if err := os.WriteFile(source, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	svc := whisper.NewService(whisper.Config{Command: stub}, nil)
	artifact, err := svc.Transcribe(context.Background(), source, filepath.Join(dir, "out"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	data, err := os.ReadFile(artifact)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !strings.HasPrefix(string(data), "start\tend\ttext\n") {
		t.Fatalf("unexpected artifact contents %q", data)
	}
}

func TestTranscribeNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	stub := testsupport.WriteExecutable(t, dir, "whisper", testsupport.WhisperFailScript)

	svc := whisper.NewService(whisper.Config{Command: stub}, nil)
	_, err := svc.Transcribe(context.Background(), filepath.Join(dir, "a.mp3"), dir)
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected transcription error, got %v", err)
	}
	if errors.Is(err, services.ErrTranscriptionTimeout) {
		t.Fatalf("non-zero exit must not be reported as timeout: %v", err)
	}
	if !strings.Contains(err.Error(), "model failed to load") {
		t.Fatalf("expected process output in error, got %v", err)
	}
}

func TestTranscribeSpawnFailure(t *testing.T) {
	svc := whisper.NewService(whisper.Config{Command: filepath.Join(t.TempDir(), "does-not-exist")}, nil)
	_, err := svc.Transcribe(context.Background(), "a.mp3", t.TempDir())
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected transcription error, got %v", err)
	}
}

func TestTranscribeTimeoutKillsProcess(t *testing.T) {
	dir := t.TempDir()
	stub := testsupport.WriteExecutable(t, dir, "whisper", testsupport.WhisperSlowScript)

	svc := whisper.NewService(whisper.Config{Command: stub, Timeout: 200 * time.Millisecond}, nil)
	started := time.Now()
	_, err := svc.Transcribe(context.Background(), filepath.Join(dir, "a.mp3"), dir)
	if !errors.Is(err, services.ErrTranscriptionTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if elapsed := time.Since(started); elapsed > 10*time.Second {
		t.Fatalf("process was not torn down promptly: %s", elapsed)
	}
}

func TestTranscribeCancellation(t *testing.T) {
	svc := whisper.NewService(whisper.Config{}, nil)
	svc.WithCommandRunner(func(ctx context.Context, _ string, _ ...string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Transcribe(ctx, "a.mp3", t.TempDir())
	if !errors.Is(err, services.ErrTranscription) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled transcription error, got %v", err)
	}
}

func TestArtifactPath(t *testing.T) {
	got := whisper.ArtifactPath("/tmp/input-x.tar.mp3", "/out")
	if got != filepath.Join("/out", "input-x.tar.tsv") {
		t.Fatalf("unexpected artifact path %q", got)
	}
}
