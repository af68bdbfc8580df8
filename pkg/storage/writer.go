package storage

import (
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"

	apperrors "lxpfetch/pkg/errors"
	"lxpfetch/pkg/logger"
	"lxpfetch/pkg/models"
)

// Writer persists converted content under the output root. Every write goes
// through a temporary file and an atomic rename, so a failed or cancelled
// run never leaves a half-written file at a final path.
type Writer struct {
	root   string
	logger logger.Logger
}

// NewWriter creates a writer rooted at dir, creating it if needed
func NewWriter(root string, log logger.Logger) (*Writer, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeWrite, "failed to create output directory", err)
	}
	return &Writer{root: root, logger: log}, nil
}

// Root returns the output root directory
func (w *Writer) Root() string {
	return w.root
}

// WriteIfChanged writes data to the path relative to the root. When an
// identical file already exists the write is skipped, keeping repeat runs
// cheap and file timestamps stable.
func (w *Writer) WriteIfChanged(relPath string, data []byte) (models.Status, error) {
	target := filepath.Join(w.root, relPath)

	if existing, err := os.ReadFile(target); err == nil {
		if blake2b.Sum256(existing) == blake2b.Sum256(data) {
			w.logger.DebugWithFields("content unchanged, skipping write", map[string]interface{}{
				"path": relPath,
			})
			return models.StatusSkipped, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return models.StatusFailed, apperrors.Wrap(apperrors.ErrorTypeWrite, "failed to create directory for "+relPath, err)
	}

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return models.StatusFailed, apperrors.Wrap(apperrors.ErrorTypeWrite, "failed to write "+relPath, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return models.StatusFailed, apperrors.Wrap(apperrors.ErrorTypeWrite, "failed to finalize "+relPath, err)
	}

	w.logger.DebugWithFields("file written", map[string]interface{}{
		"path": relPath,
		"size": len(data),
	})
	return models.StatusWritten, nil
}

// Stat reports whether a file exists under the root, and its size
func (w *Writer) Stat(relPath string) (bool, int64) {
	info, err := os.Stat(filepath.Join(w.root, relPath))
	if err != nil || info.IsDir() {
		return false, 0
	}
	return true, info.Size()
}
