package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Settings is the persisted record of user choices.
type Settings struct {
	OutputPath string `toml:"output_path,omitempty"`
}

// SettingsStore reads and writes a Settings record at a fixed path.
type SettingsStore struct {
	path string
}

func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{path: path}
}

// Path returns the file backing the store.
func (s *SettingsStore) Path() string { return s.path }

// Get returns the remembered output path, or "" when nothing has been
// stored yet.
func (s *SettingsStore) Get() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %w", ErrSettings, s.path, err)
	}

	var rec Settings
	if _, err := toml.Decode(string(data), &rec); err != nil {
		return "", fmt.Errorf("%w: parsing %s: %w", ErrSettings, s.path, err)
	}
	return rec.OutputPath, nil
}

// Set replaces the stored record with one holding path. The file is written
// to a sibling temp file and renamed into place.
func (s *SettingsStore) Set(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(Settings{OutputPath: path}); err != nil {
		return fmt.Errorf("%w: encoding: %w", ErrSettings, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %w", ErrSettings, err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.toml")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSettings, err)
	}
	tmpName := tmp.Name()

	_, werr := tmp.Write(buf.Bytes())
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: writing %s: %w", ErrSettings, tmpName, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrSettings, err)
	}
	return nil
}
