package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eruvierda/weather-map-leaflet/internal/domain"
	"github.com/jonboulle/clockwork"
)

const backupLayout = "20060102_150405"

// FileStore persists batch results as a single indented JSON document.
type FileStore struct {
	path   string
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewFileStore returns a store backed by path. A nil clock uses real time.
func NewFileStore(path string, clock clockwork.Clock, logger *slog.Logger) *FileStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &FileStore{path: path, clock: clock, logger: logger}
}

// Path returns the results file location.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes results to a temp file in the same directory and renames it
// over the target, so readers never observe a partial document.
func (s *FileStore) Save(results []domain.AreaResult) error {
	if results == nil {
		results = []domain.AreaResult{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck // sync error takes precedence
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename results file: %w", err)
	}

	s.logger.Info("results saved", "path", s.path, "areas", len(results))
	return nil
}

// LoadBatch persists a completed batch. It lets the store act as a pipeline loader.
func (s *FileStore) LoadBatch(_ context.Context, results []domain.AreaResult) error {
	return s.Save(results)
}

// Load reads back a previously saved results document.
func (s *FileStore) Load() ([]domain.AreaResult, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read results file: %w", err)
	}
	var results []domain.AreaResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("decode results file %s: %w", s.path, err)
	}
	return results, nil
}

// IsFresh reports whether the results file was modified less than threshold ago.
// A missing or unreadable file is stale.
func (s *FileStore) IsFresh(threshold time.Duration) bool {
	info, err := os.Stat(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("stat results file failed", "path", s.path, "error", err)
		}
		return false
	}
	age := s.clock.Since(info.ModTime())
	s.logger.Debug("results file age", "path", s.path, "age", age, "threshold", threshold)
	return age < threshold
}

// Backup copies the results file to <name>_backup_YYYYMMDD_HHMMSS<ext> next to it
// and returns the backup path. It returns "" and no error when there is nothing to back up.
func (s *FileStore) Backup() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read results file: %w", err)
	}

	ext := filepath.Ext(s.path)
	if ext == "" {
		ext = ".json"
	}
	base := strings.TrimSuffix(s.path, filepath.Ext(s.path))
	name := base + "_backup_" + s.clock.Now().Format(backupLayout) + ext

	if err := os.WriteFile(name, data, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	s.logger.Info("results backed up", "path", name)
	return name, nil
}
