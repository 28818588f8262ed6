package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const appName = "webpress"

// ErrNotFound is returned by Discover when no config file exists in any of
// the searched locations.
var ErrNotFound = errors.New("config not found")

func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config")
}

func dataHome() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultPath returns the XDG-compliant default config path.
func DefaultPath() string {
	return filepath.Join(configHome(), appName, "config.toml")
}

// DefaultSettingsPath returns where the remembered output path is stored.
func DefaultSettingsPath() string {
	return filepath.Join(configHome(), appName, "settings.toml")
}

// DefaultHistoryPath returns the default event history database.
func DefaultHistoryPath() string {
	return filepath.Join(dataHome(), appName, "history.db")
}

// Discover finds the config file using the standard search order.
// Search order:
//  1. WEBPRESS_CONFIG environment variable
//  2. ./config.toml (current directory)
//  3. $XDG_CONFIG_HOME/webpress/config.toml
//  4. /etc/webpress/config.toml
func Discover() (string, error) {
	if envPath := os.Getenv("WEBPRESS_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("WEBPRESS_CONFIG=%s: %w", envPath, err)
		}
		return envPath, nil
	}

	paths := []string{
		"./config.toml",
		DefaultPath(),
		"/etc/webpress/config.toml",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w, checked: %s", ErrNotFound, strings.Join(paths, ", "))
}

// LoadOrDefault loads the config at path, or the discovered one when path is
// empty. A missing config is not an error: defaults are returned with an
// empty source path.
func LoadOrDefault(path string) (*Config, string, error) {
	if path == "" {
		found, err := Discover()
		if errors.Is(err, ErrNotFound) {
			return Default(), "", nil
		}
		if err != nil {
			return nil, "", err
		}
		path = found
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}
