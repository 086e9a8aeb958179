package config

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/google/renameio/v2"

	"github.com/hairizuan-noorazman/webtester/logger"
)

// Store holds the current test configuration and applies partial updates.
type Store interface {
	// Get returns a snapshot of the current configuration.
	Get() TestConfig

	// Apply merges the given setters into the current configuration and
	// returns the result. Either all setters commit or none do.
	Apply(ctx context.Context, setters ...UpdateSetter) (TestConfig, error)
}

// FileStore is a Store persisted to a JSON file. Writes are atomic so a
// crash mid-save never leaves a truncated file behind. A FileStore with an
// empty path behaves as a purely in-memory store.
type FileStore struct {
	mu      sync.RWMutex
	current TestConfig
	path    string
	logger  logger.Logger
}

// NewFileStore creates a store backed by the JSON file at path. If the file
// exists its contents override the defaults; a missing or corrupt file is
// logged and ignored.
func NewFileStore(path string, log logger.Logger) *FileStore {
	s := &FileStore{
		current: Default(),
		path:    path,
		logger:  log,
	}
	s.load()
	return s
}

// Get returns a snapshot of the current configuration.
func (s *FileStore) Get() TestConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// Apply validates and commits the given setters against a working copy of
// the current configuration. Unspecified fields retain their prior values.
func (s *FileStore) Apply(ctx context.Context, setters ...UpdateSetter) (TestConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.current.clone()
	for _, set := range setters {
		if err := set(&working); err != nil {
			return TestConfig{}, err
		}
	}
	if err := working.Validate(); err != nil {
		return TestConfig{}, err
	}

	s.current = working
	s.persist(ctx)
	return working.clone(), nil
}

func (s *FileStore) load() {
	if s.path == "" {
		return
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn(context.Background(), "failed to read saved configuration", map[string]interface{}{
				"path":  s.path,
				"error": err.Error(),
			})
		}
		return
	}

	loaded := Default()
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.logger.Warn(context.Background(), "saved configuration is corrupt, using defaults", map[string]interface{}{
			"path":  s.path,
			"error": err.Error(),
		})
		return
	}
	if err := loaded.Validate(); err != nil {
		s.logger.Warn(context.Background(), "saved configuration is invalid, using defaults", map[string]interface{}{
			"path":  s.path,
			"error": err.Error(),
		})
		return
	}

	s.current = loaded
	s.logger.Info(context.Background(), "configuration loaded from file", map[string]interface{}{
		"path": s.path,
	})
}

// persist writes the current configuration to disk. Failures are logged but
// never surfaced; the in-memory state is already committed.
func (s *FileStore) persist(ctx context.Context) {
	if s.path == "" {
		return
	}
	data, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		s.logger.Error(ctx, "failed to marshal configuration", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if err := renameio.WriteFile(s.path, data, 0600); err != nil {
		s.logger.Error(ctx, "failed to persist configuration", map[string]interface{}{
			"path":  s.path,
			"error": err.Error(),
		})
	}
}
