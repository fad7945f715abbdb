package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ishanwen-byte/plantevolve-go/internal/constants"
	"github.com/ishanwen-byte/plantevolve-go/internal/types"
)

// FileStore writes one indented JSON file per run into a directory and
// mirrors the most recent save to latest.json
type FileStore struct {
	mu     sync.Mutex
	dir    string
	logger *logrus.Logger
}

// NewFileStore creates the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store: directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logrus.New()}, nil
}

// SetLogger replaces the store's logger
func (s *FileStore) SetLogger(logger *logrus.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Dir returns the directory runs are written to
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) Save(_ context.Context, result types.EvolutionResult) (string, error) {
	r := prepare(result)
	path, err := s.pathFor(r.RunID)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write result file: %w", err)
	}

	// Also write latest result
	latestFile := filepath.Join(s.dir, constants.LatestFile)
	if err := os.WriteFile(latestFile, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write latest result: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"run_id": r.RunID,
		"file":   path,
	}).Info("Saved result")

	return r.RunID, nil
}

func (s *FileStore) Get(_ context.Context, id string) (types.EvolutionResult, error) {
	path, err := s.pathFor(id)
	if err != nil {
		return types.EvolutionResult{}, err
	}
	return readResult(path, id)
}

// Latest returns the most recently saved result
func (s *FileStore) Latest(_ context.Context) (types.EvolutionResult, error) {
	return readResult(filepath.Join(s.dir, constants.LatestFile), "latest")
}

func (s *FileStore) List(_ context.Context) ([]RunInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}

	infos := make([]RunInfo, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == constants.LatestFile || !strings.HasSuffix(name, ".json") {
			continue
		}
		r, err := readResult(filepath.Join(s.dir, name), name)
		if err != nil {
			s.logger.WithError(err).WithField("file", name).Warn("Skipping unreadable result")
			continue
		}
		infos = append(infos, infoOf(r))
	}
	sortInfos(infos)
	return infos, nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	path, err := s.pathFor(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete result file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

// pathFor accepts only UUID run IDs so that an ID can never escape dir
func (s *FileStore) pathFor(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

func readResult(path, id string) (types.EvolutionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.EvolutionResult{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return types.EvolutionResult{}, fmt.Errorf("failed to read result file: %w", err)
	}

	var r types.EvolutionResult
	if err := json.Unmarshal(data, &r); err != nil {
		return types.EvolutionResult{}, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return r, nil
}
