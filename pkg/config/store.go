package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists section data between runs. The Manager stages each
// section's data with SetSection and commits with Save; Load pulls the
// persisted state back for LoadAll.
type Store interface {
	Load() error
	Save() error
	GetSection(sectionID string) (map[string]interface{}, error)
	SetSection(sectionID string, data map[string]interface{}) error
}

// schemaVersion tags the on-disk layout so a future format change can
// migrate old files.
const schemaVersion = "1"

// configFile is the on-disk shape of ~/.pilot/config.json: one JSON
// object per registered section, keyed by section id.
type configFile struct {
	Version  string                            `json:"version"`
	Sections map[string]map[string]interface{} `json:"sections"`
}

// FileStore is a JSON-file Store. Saves are atomic (write to a temp
// file, then rename) so an interrupted run cannot truncate the config.
type FileStore struct {
	mu       sync.RWMutex
	path     string
	sections map[string]map[string]interface{}
}

// NewFileStore opens a file-backed store. An empty path selects the
// default ~/.pilot/config.json. A missing file is not an error; the
// store starts empty and the file appears on the first Save.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, ".pilot", "config.json")
	}

	s := &FileStore{
		path:     path,
		sections: make(map[string]map[string]interface{}),
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads the config file into memory, replacing any staged data.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.sections = make(map[string]map[string]interface{})
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", s.path, err)
	}

	var file configFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("malformed config file %s: %w", s.path, err)
	}

	s.sections = file.Sections
	if s.sections == nil {
		s.sections = make(map[string]map[string]interface{})
	}
	return nil
}

// Save writes the staged sections to disk.
func (s *FileStore) Save() error {
	s.mu.RLock()
	encoded, err := json.MarshalIndent(configFile{
		Version:  schemaVersion,
		Sections: s.sections,
	}, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(encoded, '\n'), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

// GetSection returns a copy of one section's persisted data. Unknown
// sections yield an empty map so callers can treat "not saved yet" and
// "saved empty" the same way.
func (s *FileStore) GetSection(sectionID string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySection(s.sections[sectionID]), nil
}

// SetSection stages one section's data for the next Save.
func (s *FileStore) SetSection(sectionID string, data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[sectionID] = copySection(data)
	return nil
}

// copySection clones a section map so staged data and caller maps
// cannot alias each other.
func copySection(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
