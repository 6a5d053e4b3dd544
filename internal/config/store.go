package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"whisper-offline/internal/domain"
)

// Store defines persistence operations for app settings.
type Store interface {
	Load() (domain.Settings, error)
	Save(domain.Settings) error
}

// TOMLStore persists settings in a single TOML file on disk.
type TOMLStore struct {
	path string
}

// NewTOMLStore creates a TOML-backed settings store.
func NewTOMLStore(path string) *TOMLStore {
	return &TOMLStore{path: path}
}

// Load reads settings from disk or returns defaults when missing. Fields
// absent from the file keep their default values.
func (s *TOMLStore) Load() (domain.Settings, error) {
	cfg := DefaultSettings()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return domain.Settings{}, err
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return domain.Settings{}, err
	}
	return cfg, nil
}

// Save writes settings as TOML and creates parent directories.
func (s *TOMLStore) Save(cfg domain.Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o644)
}
