package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"audioscore/internal/logging"
	"audioscore/internal/services"
)

const (
	inputPrefix = "input-"
	// OutputSubdir groups per-invocation transcription output under the base directory.
	OutputSubdir = "whisper-output"
)

// StagedFile is the on-disk copy of one uploaded audio payload.
type StagedFile struct {
	// ID is the unique token shared by the staged file and its output directory.
	ID string
	// Path is the staged audio file.
	Path string
	// OutputDir receives transcription artifacts for this invocation only.
	OutputDir string
}

// BaseName returns the staged file name without its extension. The
// transcription tool names its artifacts after it.
func (s *StagedFile) BaseName() string {
	base := filepath.Base(s.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Manager allocates and releases staged files beneath a base directory.
type Manager struct {
	baseDir string
	logger  *slog.Logger
	newID   func() string
}

// NewManager returns a Manager rooted at baseDir. The directory is created on
// first use.
func NewManager(baseDir string, logger *slog.Logger) *Manager {
	return &Manager{
		baseDir: baseDir,
		logger:  logging.NewComponentLogger(logger, "workspace"),
		newID:   uuid.NewString,
	}
}

// BaseDir returns the directory staged files are written into.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// Stage writes data to a uniquely named file under the base directory. ext is
// used verbatim as the file extension (without a leading dot) and may be empty.
func (m *Manager) Stage(ctx context.Context, data []byte, ext string) (*StagedFile, error) {
	if strings.TrimSpace(m.baseDir) == "" {
		return nil, services.Wrap(services.ErrWorkspace, "stage", "base dir", "not configured", nil)
	}
	if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrWorkspace, "stage", "create base dir", m.baseDir, err)
	}

	id := m.newID()
	name := inputPrefix + id
	if ext = strings.TrimPrefix(ext, "."); ext != "" {
		name += "." + ext
	}
	staged := &StagedFile{
		ID:        id,
		Path:      filepath.Join(m.baseDir, name),
		OutputDir: filepath.Join(m.baseDir, OutputSubdir, id),
	}

	// O_EXCL guards against reuse even if the id source ever repeats.
	file, err := os.OpenFile(staged.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, services.Wrap(services.ErrWorkspace, "stage", "create file", staged.Path, err)
	}
	_, writeErr := file.Write(data)
	closeErr := file.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(staged.Path)
		return nil, services.Wrap(services.ErrWorkspace, "stage", "write file", staged.Path, err)
	}

	logging.WithContext(ctx, m.logger).Debug("audio staged",
		logging.String("path", staged.Path),
		logging.String("size", humanize.Bytes(uint64(len(data)))),
	)
	return staged, nil
}

// Release removes the staged file, its output directory, and any extra
// artifact paths. Missing files are ignored. Other failures are logged and
// returned joined so the caller can report them without masking its own
// result. A nil StagedFile only removes extras.
func (m *Manager) Release(ctx context.Context, staged *StagedFile, extras ...string) error {
	logger := logging.WithContext(ctx, m.logger)

	targets := make([]string, 0, len(extras)+1)
	if staged != nil {
		targets = append(targets, staged.Path)
	}
	targets = append(targets, extras...)

	var errs []error
	for _, path := range targets {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
		}
	}
	if staged != nil && staged.OutputDir != "" {
		if err := os.RemoveAll(staged.OutputDir); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", staged.OutputDir, err))
		}
	}

	if len(errs) == 0 {
		logger.Debug("workspace released", logging.Int("artifacts", len(targets)))
		return nil
	}
	err := services.Wrap(services.ErrWorkspace, "release", "", "cleanup incomplete", errors.Join(errs...))
	logging.WarnWithContext(logger, "workspace cleanup failed", "workspace_cleanup_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "transient audio artifacts remain on disk"),
		logging.String(logging.FieldErrorHint, "check permissions on "+m.baseDir),
	)
	return err
}
