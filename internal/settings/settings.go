// Package settings persists the small key-value state that must survive
// process restarts: the last-connected peer identity, the auto-reconnect
// flag, and the last-selected library indices.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings is the full persisted state. Everything else in the engine is
// rebuilt from scratch on startup.
type Settings struct {
	PeerID        string `yaml:"peer_id"`
	PeerName      string `yaml:"peer_name"`
	AutoReconnect bool   `yaml:"auto_reconnect"`

	LastPlaylistIndex int `yaml:"last_playlist_index"`
	LastArtistIndex   int `yaml:"last_artist_index"`
	LastAlbumIndex    int `yaml:"last_album_index"`
}

// Store is the get/put collaborator the session state machine writes through.
type Store interface {
	Load() (Settings, error)
	Save(Settings) error
}

// FileStore keeps Settings in a YAML file. A missing file reads as zero
// settings, so first runs need no setup step.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("settings: read %s: %w", s.path, err)
	}

	var st Settings
	if err := yaml.Unmarshal(data, &st); err != nil {
		return Settings{}, fmt.Errorf("settings: parse %s: %w", s.path, err)
	}
	return st, nil
}

func (s *FileStore) Save(st Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("settings: create dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("settings: write %s: %w", s.path, err)
	}
	return nil
}

// MemoryStore is an in-process Store for tests and ephemeral runs.
type MemoryStore struct {
	mu sync.Mutex
	st Settings
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st, nil
}

func (s *MemoryStore) Save(st Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st = st
	return nil
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
